package brigade_errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrRateLimited          = errors.New("rate limited")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotUploaded          = errors.New("file not uploaded")
	ErrPersistence          = errors.New("persistence error")
	ErrUpstreamStore        = errors.New("object store error")
	ErrPartialFailure       = errors.New("partial failure")
)

// PartialFailureError is returned when a multi-step workflow failed after side
// effects happened and cleaning them up failed too. Leftovers lists the object
// keys that may still exist in the store; LeftoverRows lists image rows that
// could not be removed. A leftover row always keeps its object.
type PartialFailureError struct {
	Op           string
	Leftovers    []string
	LeftoverRows []uint
	Err          error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("%s: partial failure", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Leftovers) > 0 {
		msg += " (leftover objects: " + strings.Join(e.Leftovers, ", ") + ")"
	}
	if len(e.LeftoverRows) > 0 {
		msg += fmt.Sprintf(" (leftover image rows: %v)", e.LeftoverRows)
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}
