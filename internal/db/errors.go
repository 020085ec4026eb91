package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrPoolExhausted signals that no connection could be checked out within the acquire policy.
	ErrPoolExhausted = errors.New("db: connection pool exhausted")
	// ErrUnavailable signals that a new physical connection could not be established.
	ErrUnavailable = errors.New("db: database unavailable")
	// ErrConnBroken marks query failures that left the physical connection unusable.
	ErrConnBroken = errors.New("db: connection broken")
	// ErrClosed signals use of a pool after Close.
	ErrClosed = errors.New("db: pool closed")
)

// Op constants name the failing operation for error context.
const (
	OpAcquire = "ACQUIRE"
	OpQuery   = "QUERY"
	OpScan    = "SCAN"
	OpPing    = "PING"
	OpGet     = "GET"
	OpSet     = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
