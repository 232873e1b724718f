package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the request id on requests and responses.
const Header = "X-Request-ID"

const maxLength = 128

type ctxKey struct{}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Option configures Middleware.
type Option func(*middleware)

// WithFallbackHeaders adds headers consulted, in order, when X-Request-ID is
// absent or malformed. Some gateways forward X-Correlation-ID instead.
func WithFallbackHeaders(headers ...string) Option {
	return func(m *middleware) {
		m.headers = append(m.headers, headers...)
	}
}

// WithGenerator replaces uuid.NewString as the id source.
func WithGenerator(fn func() string) Option {
	return func(m *middleware) {
		if fn != nil {
			m.generate = fn
		}
	}
}

type middleware struct {
	headers  []string
	generate func() string
}

// Middleware attaches a request id to the request context and echoes it in
// the response header. Incoming ids are reused when well formed, so provider
// webhook deliveries keep their own correlation id in logs and audit entries.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{headers: []string{Header}, generate: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := m.incoming(r)
			if id == "" {
				id = m.generate()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

func (m *middleware) incoming(r *http.Request) string {
	for _, h := range m.headers {
		if id := r.Header.Get(h); Valid(id) {
			return id
		}
	}
	return ""
}

// Valid reports whether id is non-empty, at most 128 bytes and made only of
// ASCII letters, digits, '-' and '_'.
func Valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
