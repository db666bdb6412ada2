package errs

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ConflictError reports a unique-constraint violation, e.g. two deliveries of the same
// event racing to record themselves in the inbox.
type ConflictError struct {
	Err error
}

func (t ConflictError) Error() string {
	return fmt.Sprintf("conflict: %v", t.Err)
}

func (t ConflictError) Unwrap() error {
	return t.Err
}

// RetryableError marks a transient transport failure that the next poll may not hit.
type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}

func (t RetryableError) Unwrap() error {
	return t.Err
}

// PoisonMessageError marks an inbound message that can never be processed, no matter
// how many times it is redelivered.
type PoisonMessageError struct {
	Err error
}

func (t PoisonMessageError) Error() string {
	return fmt.Sprintf("poison message: %v", t.Err)
}

func (t PoisonMessageError) Unwrap() error {
	return t.Err
}

func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}

func IsPoison(err error) bool {
	var p PoisonMessageError
	return errors.As(err, &p)
}

func IsRetryable(err error) bool {
	var r RetryableError
	return errors.As(err, &r)
}
