// Package internal contains helper utilities that are intentionally private to goAuthz,
// including secure random generation for session ids, secrets and codes.
//
// # Sub-packages
//
//   - codes: Redis store for one-time login Codes and SMS verification codes
//   - dispatch: async notification worker pool (SMS / WeChat fan-out)
//   - rate: Redis-backed cooldown and fixed-window limiter primitives
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAuthz API.
//   - Be imported by any package outside the goAuthz module.
package internal
