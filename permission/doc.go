// Package permission aggregates role grants into the set of functions a
// caller can reach and matches a requested function key against it.
//
// # Aggregation
//
// A user reaches a function through any number of roles. When roles
// disagree, the lowest [Permit] wins: one deny overrides any number of
// allows.
//
// # Architecture boundaries
//
// This package is pure in-memory logic plus the [Source] interface. The
// relational implementation lives in store/pgstore.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goAuthz or session.
package permission
