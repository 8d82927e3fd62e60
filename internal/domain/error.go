package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrJobTerminal        = errors.New("job is in a terminal state")
	ErrConcurrentUpdate   = errors.New("job was updated by a concurrent invocation")
	ErrInvocationInFlight = errors.New("another invocation holds the job lock")
	ErrUnknownPlatform    = errors.New("unknown platform")
)
