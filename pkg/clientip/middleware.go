package clientip

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithIP returns a copy of ctx carrying the resolved client address.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// Middleware resolves the client address once per request using
// DefaultHeaders and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithHeaders(DefaultHeaders...)(next)
}

// MiddlewareWithHeaders is Middleware with an explicit header priority list.
// Pass no headers to trust only the TCP peer address.
func MiddlewareWithHeaders(headers ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithIP(r.Context(), FromHeaders(r, headers...))))
		})
	}
}
