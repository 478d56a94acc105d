package utils

import (
	"errors"
)

/*
Sentinel errors for the canvassing domain. Controllers and services
branch with errors.Is(err, ErrXYZ).
*/
var (
	// ErrNotFound: a referenced document was absent at read time.
	ErrNotFound = errors.New("not_found")

	// ErrValidationRejected: input rejected before any write was issued
	// (e.g. whitespace-only apartment label). Most call sites treat it
	// as a silent no-op rather than a user-visible error.
	ErrValidationRejected = errors.New("validation_rejected")

	// ErrWriteFailed: a create/update/delete was refused by the store.
	// The caller is told; nothing retries automatically.
	ErrWriteFailed = errors.New("write_failed")

	// ErrAnonymousVisit: visit recording needs an authenticated uid.
	ErrAnonymousVisit = errors.New("anonymous_visit")
)
