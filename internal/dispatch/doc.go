// Package dispatch runs notification delivery off the request path.
//
// # Design
//
// A [Dispatcher] owns a buffered channel drained by a fixed number of
// workers. Submit never waits on the network: with DropIfFull it drops and
// counts, otherwise it blocks only until buffer space frees up or the
// caller's context ends. Workers share a token-bucket limiter so a burst of
// logins cannot exceed the gateway's send rate.
//
// # What this package must NOT do
//
//   - Import goAuthz.
//   - Log message parameters; they carry verification codes.
package dispatch
