// Package syncer is the Sync Orchestrator: it owns the canonical in-memory
// collection of each record kind and keeps it in step with the local store
// and, when one is configured, a remote document store.
//
// # Modes
//
// A Session holds the mode shared by every collection of an application:
//
//	[start] --remote configured & reachable--> RemoteBacked
//	[start] --no remote-----------------------> LocalOnly
//	RemoteBacked --feed error OR write error--> LocalOnly
//
// LocalOnly is terminal for the session. There is no reconnect.
//
// # Reads and snapshots
//
// In RemoteBacked mode a Collection subscribes to its remote collection.
// Every snapshot replaces the canonical collection wholesale, is sorted
// newest created first, raises the next id to max(ids)+1 when needed, is
// mirrored into the local store as a cache and is published to listeners.
// In LocalOnly mode the collection is loaded from the local store, seeded
// with defaults when the stored blob is missing or malformed.
//
// # Mutations
//
// Create, Update and Delete compute the change in memory first (id from
// the collection's counter, timestamps, derived fields). In RemoteBacked
// mode the change goes to the remote store, and the resulting snapshot
// brings it back into the canonical collection. If the remote call fails
// the session is downgraded and the change is applied locally, so the
// call still succeeds for the caller. In LocalOnly mode the change is
// applied, persisted and published directly.
//
// # Listeners
//
// Subscribe registers a listener that receives a full copy of the
// collection after every change. Callers never touch canonical records.
//
// Usage
//
//	session := syncer.NewSession(remoteStore != nil, nil)
//	adventures := syncer.NewAdventures(syncer.Options{
//	    Local:   localStore,
//	    Session: session,
//	    Remote:  remoteStore,
//	})
//	if err := adventures.Start(ctx); err != nil {
//	    return err
//	}
//	a, err := adventures.Create(ctx, types.Adventure{Title: "Road trip"})
package syncer
