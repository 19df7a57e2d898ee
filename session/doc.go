// Package session provides the per-user [Record] and its [KeySet] credential
// bindings, plus the Redis [Store] that caches them.
//
// # Model
//
// One [Record] exists per user id. It carries a profile snapshot, the
// selected tenant/department/role context, lockout counters and a map of
// session id -> [KeySet]. Every live application binding of the user shares
// the same lockout state.
//
// State transitions on [Record] and [KeySet] return a changed flag; callers
// write the record back only when something changed.
//
// # Encoding
//
// Records are stored as a one-byte format version followed by a JSON body.
//
// # Architecture boundaries
//
// This package owns the data model and its persistence. It does NOT decode
// bearer credentials, evaluate permissions or enforce rate limits.
//
// # What this package must NOT do
//
//   - Import goAuthz, identity or permission (no upward imports).
//   - Log secret or refresh keys.
package session
