package subscription

import "errors"

var (
	ErrMissingUserRef = errors.New("user id or email is required")
	ErrInvalidEvent   = errors.New("invalid subscription event")
	ErrInvalidPlan    = errors.New("invalid subscription plan")
	ErrInvalidMode    = errors.New("invalid activation mode")

	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAmbiguousEmail       = errors.New("more than one account matches email")

	ErrStoreFailure  = errors.New("account store failure")
	ErrProviderError = errors.New("subscription provider error")

	ErrFailedToLoadCatalog = errors.New("failed to load plan catalog")
	ErrPlanNotInCatalog    = errors.New("plan not found in catalog")
)
