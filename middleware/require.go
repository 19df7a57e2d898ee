package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/goAuthz"
)

// Authenticated admits any caller with a valid, unexpired credential.
func Authenticated(engine *goAuthz.Engine) func(http.Handler) http.Handler {
	return Guard(engine, nil)
}

// Require admits callers allowed to reach functionKey.
func Require(engine *goAuthz.Engine, functionKey string) func(http.Handler) http.Handler {
	return Guard(engine, func(*http.Request) string { return functionKey })
}

// RequireRoute uses the request's interface URL as the function key: the
// chi route pattern when routed by chi, the raw path otherwise.
func RequireRoute(engine *goAuthz.Engine) func(http.Handler) http.Handler {
	return Guard(engine, routeKey)
}

func routeKey(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
