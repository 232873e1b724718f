package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vemx1/vemx1/handler"
	"github.com/vemx1/vemx1/pkg/clientip"
	"github.com/vemx1/vemx1/pkg/httpserver"
	"github.com/vemx1/vemx1/pkg/ratelimiter"
	"github.com/vemx1/vemx1/pkg/requestid"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures the mounted services. Each service is optional.
type RouterOptions struct {
	Webhooks     Mountable
	Subscription Mountable
	Checkout     Mountable

	// AdminToken protects /api routes. Empty disables the check.
	AdminToken string

	// Limiter applies per-client budgets to webhook and API routes. Nil disables limiting.
	Limiter *ratelimiter.Bucket

	// Readiness serves /readyz. Liveness is always served on /healthz.
	Readiness http.Handler

	Logger *slog.Logger
}

// Router creates the HTTP surface.
//
//	POST /webhooks/{provider}
//	POST /api/subscription/activate
//	POST /api/subscription/cancel
//	GET  /api/subscription/status
//	POST /api/checkout
//	GET  /healthz, /readyz
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware(), clientip.Middleware)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSONError(handler.ErrNotFound).Render(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSONError(handler.ErrMethodNotAllowed).Render(w, r)
	})

	r.Get("/healthz", httpserver.LivenessHandler())
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}

	limit := func(r chi.Router, scope string) {
		if opts.Limiter != nil {
			key := ratelimiter.Composite(ratelimiter.Static(scope), ratelimiter.ByClientIP)
			r.Use(ratelimiter.Middleware(opts.Limiter, key, log))
		}
	}

	if opts.Webhooks != nil {
		r.Route("/webhooks", func(r chi.Router) {
			limit(r, "webhook")
			r.Mount("/", opts.Webhooks.Handle())
		})
	}

	r.Route("/api", func(r chi.Router) {
		limit(r, "api")
		r.Use(RequireBearer(opts.AdminToken))
		if opts.Subscription != nil {
			r.Mount("/subscription", opts.Subscription.Handle())
		}
		if opts.Checkout != nil {
			r.Mount("/checkout", opts.Checkout.Handle())
		}
	})

	return r
}
