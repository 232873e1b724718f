package binder

import "errors"

// ErrBinderNotApplicable lets a binder decline a request so the next one in
// the chain runs.
var ErrBinderNotApplicable = errors.New("binder: not applicable")

// Client errors. The handler package renders all of them as 400.
var (
	ErrInvalidJSON          = errors.New("invalid JSON body")
	ErrInvalidQuery         = errors.New("invalid query parameters")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrMissingContentType   = errors.New("missing Content-Type header")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
