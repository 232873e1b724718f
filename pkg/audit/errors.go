package audit

import "errors"

var (
	ErrStorageNotAvailable = errors.New("audit storage is unavailable")
	ErrEventValidation     = errors.New("audit event validation failed")
	ErrStoreFailed         = errors.New("failed to store audit event")
)
