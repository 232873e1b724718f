package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vemx1/vemx1/handler"
	"github.com/vemx1/vemx1/pkg/logger"
)

// Check is a named readiness dependency such as a database ping.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// HealthStatus is the body returned by the health handlers.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always reports the process as alive.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSON(HealthStatus{Status: "ok"}).Render(w, r)
	}
}

// ReadinessHandler runs every check with the given timeout and responds 200
// when all pass, 503 otherwise. Individual results are listed in the body.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res := HealthStatus{Status: "ready", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Fn(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed",
					logger.Component("healthcheck"),
					slog.String("check", c.Name),
					logger.Error(err),
				)
				res.Checks[c.Name] = "unavailable"
				res.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			res.Checks[c.Name] = "ok"
		}

		_ = handler.JSON(res, handler.WithJSONStatus(status)).Render(w, r)
	}
}
