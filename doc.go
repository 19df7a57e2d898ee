// Package goAuthz is a session and authorization engine. It issues
// rotating secret/refresh key pairs per application, validates compact
// bearer credentials against a Redis-cached session record and answers
// "may this caller reach function X" through a pluggable permission query.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Login flow
//
//  1. The client asks [Engine.IssueCode] for a one-time code.
//  2. It computes credential.Signature(binding, code), where the binding is
//     credential.Hash(identifier + passwordHash) for password logins.
//  3. [Engine.IssueToken] consumes the code and returns a [TokenPackage].
//  4. Requests carry the access credential to [Engine.Authorize]; once it
//     reports [StatusExpiredCredential] the client calls [Engine.Refresh].
//
// # Architecture boundaries
//
// goAuthz is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Record caching and code storage live in identity and
// session; rate limiting and notification dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or encoding details in its public API.
//   - Retry storage failures. They surface wrapped in [ErrStorage].
//   - Say whether a mismatch was the user or the secret.
package goAuthz
