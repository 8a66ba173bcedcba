package models

import "errors"

// Domain error kinds. Callers and the HTTP error handler match these with
// errors.Is; every failure site wraps them with identifying context.
var (
	// Stock / reservation
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrOverRelease         = errors.New("release exceeds reserved quantity")
	ErrReservationNotFound = errors.New("no outstanding reservation")
	ErrNegativeBalance     = errors.New("posting would make stock negative")

	// Document lifecycle
	ErrInvalidState = errors.New("document state does not allow this operation")

	// Allocation
	ErrInvalidTarget       = errors.New("exactly one allocation target required")
	ErrDuplicateAllocation = errors.New("invoice already has an allocation")
	ErrPeriodMismatch      = errors.New("custom periods do not partition the allocation window")
	ErrAllocationNotActive = errors.New("allocation is not active")

	// Recognition
	ErrAlreadyRecognized = errors.New("period already recognized")
	ErrNotRecognized     = errors.New("period is not recognized")
)
