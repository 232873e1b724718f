// Package binder binds HTTP request data to Go structs.
//
// Two binders are provided: JSON for request bodies and Query for URL query
// parameters. Both return errors wrapping package sentinels so handlers can
// map them to 400 responses with errors.Is.
//
// # Usage
//
//	type ActivateRequest struct {
//		UserID string `json:"userId"`
//		Plan   string `json:"plano"`
//	}
//
//	http.HandleFunc("/activate", handler.Wrap(activate,
//		handler.WithBinder(binder.JSON()),
//	))
//
//	type StatusRequest struct {
//		UserID string `query:"userId"`
//	}
//
//	http.HandleFunc("/status", handler.Wrap(status,
//		handler.WithBinder(binder.Query()),
//	))
//
// String fields are trimmed of surrounding whitespace after decoding.
// A binder returns ErrBinderNotApplicable when the request carries no data
// for it, so several binders can be chained on one handler.
package binder
