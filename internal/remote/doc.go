// Package remote defines the Remote Document Store Adapter.
//
// A DocumentStore holds named collections of wire documents. Writes are
// plain create/update/delete calls; reads happen only through Subscribe,
// which pushes the entire collection on every change made by any writer.
// Snapshots are ordered newest created first when the backend can do so,
// but callers re-sort anyway.
//
// Every failure is reported as an *Error carrying a Code. Callers are not
// expected to branch on the code for recovery: any remote failure sends
// the session to local-only mode. The code exists to give the user a
// readable reason in the connection-status indicator.
//
// HTTPStore talks to the bundled document server (see package docserver).
// The libSQL-backed store lives in package libsqlstore.
package remote
