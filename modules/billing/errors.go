package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vemx1/vemx1/handler"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/subscription"
	"github.com/vemx1/vemx1/pkg/validator"
)

// toHTTPError maps domain errors to HTTP errors. Messages of sentinel
// errors are safe to expose; anything unclassified becomes a bare 500.
func toHTTPError(err error) error {
	if validator.IsValidationError(err) {
		return err
	}

	switch {
	case errors.Is(err, subscription.ErrMissingUserRef),
		errors.Is(err, subscription.ErrInvalidEvent),
		errors.Is(err, subscription.ErrInvalidPlan),
		errors.Is(err, subscription.ErrInvalidMode),
		errors.Is(err, pkgbilling.ErrMissingSubscriptionID),
		errors.Is(err, pkgbilling.ErrPlanNotSold):
		return handler.ErrBadRequest.WithMessage(flatMessage(err))
	case errors.Is(err, subscription.ErrAccountNotFound):
		return handler.ErrNotFound.WithMessage(subscription.ErrAccountNotFound.Error())
	case errors.Is(err, subscription.ErrAmbiguousEmail):
		return handler.ErrConflict.WithMessage(subscription.ErrAmbiguousEmail.Error())
	case errors.Is(err, subscription.ErrAccountAlreadyExists):
		return handler.ErrConflict.WithMessage(subscription.ErrAccountAlreadyExists.Error())
	case errors.Is(err, pkgbilling.ErrProviderUnavailable):
		return handler.ErrServiceUnavailable.WithMessage(pkgbilling.ErrProviderUnavailable.Error())
	case errors.Is(err, pkgbilling.ErrProviderNotConfigured):
		return handler.ErrInternalServerError.WithMessage(pkgbilling.ErrProviderNotConfigured.Error())
	case errors.Is(err, pkgbilling.ErrUpstreamRejected),
		errors.Is(err, pkgbilling.ErrCheckoutFailed),
		errors.Is(err, pkgbilling.ErrCancelFailed),
		errors.Is(err, subscription.ErrProviderError):
		return handler.ErrInternalServerError.WithMessage(providerMessage(err))
	}
	return err
}

// flatMessage renders a joined error on one line.
func flatMessage(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}

// providerMessage passes through the upstream rejection when there is one.
func providerMessage(err error) string {
	var apiErr *pkgbilling.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return flatMessage(err)
}

// failure logs err and renders it. Client errors log at WARN, the rest at ERROR.
func failure(ctx handler.Context, log *slog.Logger, msg string, err error) handler.Response {
	httpErr := toHTTPError(err)

	level := slog.LevelError
	var he handler.HTTPError
	if validator.IsValidationError(httpErr) || (errors.As(httpErr, &he) && he.Code < http.StatusInternalServerError) {
		level = slog.LevelWarn
	}
	log.LogAttrs(ctx, level, msg,
		slog.String("path", ctx.Request().URL.Path),
		logger.Error(err),
	)
	return handler.JSONError(httpErr)
}
