package models

import "errors"

var (
	// ErrInvalidStatus is returned for a status value outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrVisitImmutable guards the append-only visit history.
	ErrVisitImmutable = errors.New("visits are append-only")
)
