package domain

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidTransition  = errors.New("invalid status transition")

	// ErrConflict reports a lost race on an atomic update. Transitions
	// retry it internally before surfacing it to the caller.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError reports malformed order input at creation time.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + e.Reason
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
