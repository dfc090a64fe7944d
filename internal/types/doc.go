// Package types defines the records tracked by the adventure tracker.
//
// # Records
//
// Three record kinds share the same lifecycle: an Adventure (bucket-list
// item), a Surprise (photo gift from one partner to the other) and the
// legacy Task. Each carries an orchestrator-assigned integer ID, a
// CreatedAt stamp set once and an UpdatedAt stamp refreshed on every
// mutation. Adventures and surprises embed an ordered list of comments.
//
// # Invariants
//
//   - UpdatedAt >= CreatedAt
//   - ID is immutable after creation
//   - Comments are immutable once posted; they can only be deleted
//
// Records are plain values. Clone returns a deep copy so callers that hand
// out snapshots never share slices with the canonical collection.
package types
