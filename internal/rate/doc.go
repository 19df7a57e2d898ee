// Package rate provides the Redis-backed throttling primitives used by every
// goAuthz flow that issues something to an unauthenticated caller.
//
// # Policies
//
//   - Cooldown: "at most once per window" with a punitive reset when the same
//     key is hit twice within one second.
//   - FixedWindow: counter with a non-sliding TTL; the window starts on the
//     first hit and is never extended by later hits.
//
// Both policies run as single Lua scripts so read-modify-write is atomic on the
// Redis side. Keys are "<prefix>:" + hex(sha256(operation + ":" + caller)) so
// different operations and callers never collide and the raw caller value is
// never stored.
//
// # What this package must NOT do
//
//   - Decide what happens to a limited caller (flows map results to errors).
//   - Be imported outside the goAuthz module.
package rate
