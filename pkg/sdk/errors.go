package finder

import "github.com/kailas-cloud/facilityfinder/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidParameter = domain.ErrInvalidParameter
	ErrMissingParameter = domain.ErrMissingParameter
	ErrConnection       = domain.ErrConnection
	ErrPoolExhausted    = domain.ErrPoolExhausted
	ErrQuery            = domain.ErrQuery
)

// IsRetryable reports whether err is a transient pool or connection failure.
func IsRetryable(err error) bool { return domain.IsRetryable(err) }
