package config

import "errors"

// Load failures; match them with errors.Is.
var (
	ErrNilPointer      = errors.New("config: Load needs a non-nil pointer")
	ErrLoadingEnvFile  = errors.New("config: unable to read env file")
	ErrParsingConfig   = errors.New("config: unable to parse environment")
	ErrInvalidConfig   = errors.New("config: invalid values")
	ErrConfigNotLoaded = errors.New("config: not loaded")
)
