package domain

import "errors"

var (
	// ErrInvalidParameter signals a missing or malformed search parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMissingParameter signals an absent required parameter.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrConnection signals that the database could not be reached.
	ErrConnection = errors.New("database unavailable")
	// ErrPoolExhausted signals that every pooled connection is checked out.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrQuery signals that the database rejected or failed a query.
	ErrQuery = errors.New("query failed")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// ParameterError carries a client-facing validation message for a parameter kind
// (ErrInvalidParameter or ErrMissingParameter).
type ParameterError struct {
	Kind    error
	Param   string
	Message string
}

func (e *ParameterError) Error() string { return e.Message }

func (e *ParameterError) Unwrap() error { return e.Kind }

// NewInvalidParameter creates an ErrInvalidParameter error for param.
func NewInvalidParameter(param, message string) error {
	return &ParameterError{Kind: ErrInvalidParameter, Param: param, Message: message}
}

// NewMissingParameter creates an ErrMissingParameter error for param.
func NewMissingParameter(param, message string) error {
	return &ParameterError{Kind: ErrMissingParameter, Param: param, Message: message}
}

// IsRetryable reports whether err belongs to a category a caller may retry with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrPoolExhausted)
}
