package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. The transport layer
// maps these to statuses without knowing anything about HTTP itself.
var (
	// ErrValidation marks malformed, caller-correctable input
	ErrValidation = errors.New("invalid input")

	// ErrNotFound covers both true absence and cross-owner access, so a
	// record belonging to someone else is indistinguishable from a record
	// that does not exist
	ErrNotFound = errors.New("stock not found")

	// ErrForbidden is returned only where an owner identifier is asserted
	// explicitly in the request shape and does not match the caller
	ErrForbidden = errors.New("access denied")

	// ErrDuplicate is raised by the store when an insert collides with an
	// existing (owner, ticker) pair. It is a validation-class failure.
	ErrDuplicate = errors.New("stock already exists for owner")
)

// IsValidation reports whether err is caller-correctable
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicate)
}

// BulkInsertError reports a partial ordered bulk insert: the prefix of
// records inserted before the failing element, the failing element's index,
// and the cause. Prior insertions are NOT rolled back; the caller is
// responsible for inspecting the prefix and reissuing the remainder.
type BulkInsertError struct {
	Inserted    []*UserStock
	FailedIndex int
	Err         error
}

func (e *BulkInsertError) Error() string {
	return fmt.Sprintf("bulk insert failed at element %d after %d inserted: %v",
		e.FailedIndex, len(e.Inserted), e.Err)
}

func (e *BulkInsertError) Unwrap() error {
	return e.Err
}
