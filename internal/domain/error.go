package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")

	// Purchase flow errors
	ErrAlreadyPurchased     = errors.New("item already purchased")
	ErrItemUnavailable      = errors.New("item is not available")
	ErrInvalidTransition    = errors.New("invalid purchase state transition")
	ErrVerificationFailed   = errors.New("payment verification failed")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrCompletionFailed     = errors.New("purchase completion failed after verified payment")
	ErrMissingGatewaySecret = errors.New("payment gateway secret is not configured")
	ErrPurchaseLocked       = errors.New("another purchase attempt is in progress")
)
