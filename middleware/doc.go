// Package middleware adapts goAuthz.Engine to net/http and chi middleware.
//
// # Guards
//
//   - [Authenticated] checks the bearer credential only.
//   - [Require] additionally checks one function by id, alias or URL.
//   - [RequireRoute] uses the matched chi route pattern (or the request
//     path) as the function key.
//
// Each guard reads the Authorization header, calls Engine.Authorize and
// injects the [goAuthz.Result] into the request context.
//
// # Status mapping
//
//	invalid credential  401
//	expired credential  401 (client refreshes)
//	account locked      423
//	not authorized      403
//	storage failure     503
//
// # What this package must NOT do
//
//   - Decode credentials itself (delegates to Engine).
//   - Access Redis (Engine handles I/O).
package middleware
