// Package codes provides the Redis-backed stores for one-time login codes and
// numeric SMS verification codes.
//
// # Design
//
// A login code is written as two keys: signature -> code with a short TTL,
// and code -> user id without TTL. [Store.Consume] reads and deletes both in
// one Lua script so a duplicate exchange can never observe the code twice.
//
// SMS codes are keyed by a hash of (type, mobile, code) so the plaintext
// mobile number never appears in a Redis key.
//
// # What this package must NOT do
//
//   - Import goAuthz or any sibling internal package.
//   - Decide which binding key a login type uses; callers compute signatures.
package codes
