package handler

import (
	"log/slog"
	"net/http"

	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/requestid"
)

// NewErrorHandler creates an error handler that renders JSON error bodies and
// logs client errors at WARN and server errors at ERROR.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		resp := JSONError(err)
		status := resp.(*jsonResponse).status

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
