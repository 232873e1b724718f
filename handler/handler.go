package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vemx1/vemx1/pkg/binder"
)

// HandlerFunc handles a request already bound into R.
//
//	activate := func(ctx handler.Context, req ActivateRequest) handler.Response {
//		res, err := reconciler.Reconcile(ctx, req.Event())
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses an HTTP request into v.
type Bind func(r *http.Request, v any) error

// ErrorHandler renders binding, handler and render failures.
type ErrorHandler func(ctx Context, err error)

// Option configures Wrap.
type Option func(*options)

type options struct {
	binders      []Bind
	errorHandler ErrorHandler
}

// WithBinder appends request binders. They run in order; a binder returning
// binder.ErrBinderNotApplicable is skipped.
func WithBinder(binders ...Bind) Option {
	return func(o *options) {
		for _, b := range binders {
			if b != nil {
				o.binders = append(o.binders, b)
			}
		}
	}
}

// WithErrorHandler replaces the default error handler, which renders the
// error as JSON without logging it.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

func renderError(ctx Context, err error) {
	_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// Wrap adapts h to http.HandlerFunc. A panic inside h is recovered and
// reported to the error handler as ErrHandlerPanic.
//
//	r.Post("/activate", handler.Wrap(s.activate,
//		handler.WithBinder(binder.JSON()),
//		handler.WithErrorHandler(handler.NewErrorHandler(log)),
//	))
func Wrap[R any](h HandlerFunc[R], opts ...Option) http.HandlerFunc {
	o := &options{errorHandler: renderError}
	for _, opt := range opts {
		opt(o)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range o.binders {
			err := bind(r, &req)
			if errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			if err != nil {
				o.errorHandler(ctx, err)
				return
			}
		}

		resp, err := call(h, ctx, req)
		if err != nil {
			o.errorHandler(ctx, err)
			return
		}
		if err := resp.Render(w, r); err != nil {
			o.errorHandler(ctx, err)
		}
	}
}

func call[R any](h HandlerFunc[R], ctx Context, req R) (resp Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	resp = h(ctx, req)
	if resp == nil {
		return nil, ErrNilResponse
	}
	return resp, nil
}
