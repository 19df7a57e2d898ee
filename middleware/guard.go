package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/goAuthz"
)

type resultContextKey struct{}

// ResultFromContext returns the authorization result stored by a guard.
func ResultFromContext(ctx context.Context) (goAuthz.Result, bool) {
	res, ok := ctx.Value(resultContextKey{}).(goAuthz.Result)
	return res, ok
}

// Guard authorizes every request with the function key chosen by keyFn.
// A nil keyFn checks the credential only.
func Guard(engine *goAuthz.Engine, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var key string
			if keyFn != nil {
				key = keyFn(r)
			}

			res, err := engine.Authorize(r.Context(), token, key)
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if !res.OK() {
				http.Error(w, res.Status.String(), httpStatus(res.Status))
				return
			}

			ctx := context.WithValue(r.Context(), resultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func httpStatus(s goAuthz.Status) int {
	switch s {
	case goAuthz.StatusAccountLocked:
		return http.StatusLocked
	case goAuthz.StatusNotAuthorized:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
