// Package validator collects field validation failures into a single error.
//
// Request handlers build small Rule values and evaluate them with Apply:
//
//	err := validator.Apply(
//		validator.RequiredOneOf([]string{"userId", "email"}, req.UserID, req.Email),
//		validator.ValidEmail("email", req.Email),
//		validator.InList("plano", req.Plan, []string{"basico", "premium"}, true),
//	)
//
// Tagged structs, configuration in particular, are checked with Struct, which
// delegates to github.com/go-playground/validator/v10 and converts its field
// errors into the same ValidationErrors type.
//
// ValidationErrors matches ErrValidationFailed with errors.Is, and the HTTP
// layer renders it as a 400 response with per-field details.
package validator
