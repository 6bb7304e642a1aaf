package scheduling

import "errors"

var (
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrForbidden         = errors.New("not allowed to change this therapist's availability")

	// ErrValidation is wrapped by every malformed-input error.
	ErrValidation = errors.New("validation failed")
)
