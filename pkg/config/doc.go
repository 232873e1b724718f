// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct tag parsing. Parsed structs are then
// checked against their `validate` tags (see pkg/validator), so cross-field
// rules such as "the Firestore backend needs a project id" fail at startup.
//
// Each configuration type is parsed once and cached for the life of the
// process. Failed loads are not cached. Tests can call ResetCache.
//
//	var cfg httpserver.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Errors match ErrParsingConfig, ErrInvalidConfig, ErrLoadingEnvFile or
// ErrNilPointer with errors.Is.
package config
