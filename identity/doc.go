// Package identity resolves login identifiers to users, materializes their
// session records into the cache, and runs the one-time login code
// exchange.
//
// # Cache population
//
// Identifier lookups hit a Redis forward index first. On a miss the
// [Resolver] loads the user from its [UserProvider] inside a singleflight
// group keyed by identifier, so a cold cache costs one database load per
// identifier no matter how many requests arrive at once.
//
// # Login codes
//
// [Resolver.IssueCode] binds a random code to a user. The client proves
// knowledge of the binding key by submitting Hash(binding + code); the
// server finds the code by that signature and consumes it exactly once.
package identity
