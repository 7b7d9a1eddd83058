package access

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var callerKey contextKey

// CallerMiddleware extracts the bearer token and stores it as the caller
// identity. Authorization itself happens at each guarded entry point, not
// here; read-only routes stay open.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := ""
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			caller = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	})
}

// CallerFromContext returns the caller identity set by CallerMiddleware.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}
