package planner

import "errors"

var (
	// ErrInvalidInput is returned for blank override values, unknown identifiers and
	// self-swaps. The store is never changed when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleData marks a fetch result that was superseded by a newer request.
	// Callers drop it without telling the user.
	ErrStaleData = errors.New("stale data")

	// ErrExternalService wraps failures of the inventory, suggestion or catalog collaborators.
	ErrExternalService = errors.New("external service failure")
)
