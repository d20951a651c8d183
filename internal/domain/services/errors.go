package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Domain errors. Every error returned by this package wraps one of them,
// with the wrapping message naming the precondition that failed.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrNotEligible    = errors.New("not eligible")
	ErrNotPresent     = errors.New("not present")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInUse          = errors.New("in use")
	ErrHolderCheckout = errors.New("lockup holder cannot check out")
	ErrInvalidInput   = errors.New("invalid input")
)

// notFound maps gorm's missing-row error to ErrNotFound and passes anything else through
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}
