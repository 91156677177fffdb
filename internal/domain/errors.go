package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is; the specific errors
// below wrap exactly one kind.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrOutOfRange           = errors.New("out of range")
	ErrConflict             = errors.New("concurrent modification, retry with fresh state")
	ErrStorage              = errors.New("storage failure")
	ErrEstimatorUnavailable = errors.New("travel estimator unavailable")
)

var (
	ErrEmptyBatch          = fmt.Errorf("%w: reservation batch is empty", ErrInvalidArgument)
	ErrEmptyGroup          = fmt.Errorf("%w: group has no assignments", ErrInvalidArgument)
	ErrGroupCount          = fmt.Errorf("%w: group count out of bounds", ErrInvalidArgument)
	ErrGroupNotFound       = fmt.Errorf("group %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrAssignmentNotFound  = fmt.Errorf("assignment %w", ErrNotFound)
)
