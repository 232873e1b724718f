// Package handler provides type-safe HTTP request handling.
//
// Handlers are generic functions that receive a bound request struct and
// return a Response. Wrap adapts them to http.HandlerFunc, running binders
// and routing failures to the error handler:
//
//	type StatusRequest struct {
//		UserID string `query:"userId"`
//	}
//
//	func status(ctx handler.Context, req StatusRequest) handler.Response {
//		acc, err := store.Get(ctx, req.UserID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(acc)
//	}
//
//	r.Get("/status", handler.Wrap(status,
//		handler.WithBinder(binder.Query()),
//	))
//
// # Errors
//
// JSONError renders {"error": {"code": ..., "message": ...}}. The status code
// comes from the first HTTPError or ValidationError in the error chain; binder
// failures map to 400 and anything else to 500 with a generic message, so
// internal error text never reaches clients.
package handler
