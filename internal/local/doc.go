// Package local provides the Local Store Adapter: a best-effort key/value
// cache holding one serialized blob per namespace.
//
// The store is never authoritative while a remote store is active, so its
// contract is deliberately forgiving:
//
//   - Load reports ErrNotFound for a missing namespace AND for a blob that
//     fails to parse; malformed data is logged and discarded.
//   - Save overwrites the whole namespace and never returns an error.
//     Write failures are logged and swallowed.
//
// Two implementations satisfy Store. SQLite keeps the namespaces in an
// embedded database file (WAL mode, shared safely between processes).
// Memory keeps them in a map and is used by tests and ephemeral runs.
package local
