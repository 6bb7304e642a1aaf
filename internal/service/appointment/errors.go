package appointment

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrConflict          = errors.New("time slot is no longer available")
	ErrInvalidTransition = errors.New("appointment can no longer be modified")
	ErrValidation        = errors.New("invalid appointment request")
	ErrForbidden         = errors.New("not allowed to act on this appointment")
)
