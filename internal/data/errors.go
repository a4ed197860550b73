package data

import "errors"

// Errors surfaced to callers. Store/driver errors not listed here propagate
// unchanged; the engine never retries.
var (
	// ErrNotAuthenticated means no identity was supplied for an operation
	// that requires one.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound means the referenced list, item or request does not
	// resolve.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyResolved means a share request has already been accepted or
	// rejected; its status transitions exactly once.
	ErrAlreadyResolved = errors.New("request already resolved")

	// ErrNameRequired means a list was created with an empty name.
	ErrNameRequired = errors.New("list name required")

	// ErrInvalidKind means the list kind is not shopping or pantry.
	ErrInvalidKind = errors.New("invalid list kind")

	// ErrInvalidPriority means the item priority is not alta, media or bassa.
	ErrInvalidPriority = errors.New("invalid item priority")

	// ErrNegativeCost means an item cost below zero was supplied.
	ErrNegativeCost = errors.New("item cost must not be negative")
)
