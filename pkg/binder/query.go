package binder

import (
	"net/http"
	"reflect"
)

// Query creates a query parameter binder.
//
// Supported tags:
//   - `query:"name"` binds parameter "name"
//   - `query:"-"` skips the field
//
// Fields without a tag bind the lower-cased field name. Basic scalar types,
// slices of them and pointers for optional values are supported.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		if len(values) == 0 {
			return ErrBinderNotApplicable
		}
		if err := bindValues(v, "query", values, ErrInvalidQuery); err != nil {
			return err
		}
		trimStrings(reflect.ValueOf(v))
		return nil
	}
}
