package service

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials login failure, surfaced as 401
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrForbidden caller authenticated but not allowed, surfaced as 403
var ErrForbidden = errors.New("forbidden")

// BusinessRuleError domain rule violation, surfaced as 400 with the full message
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// NewBusinessRuleError builds a formatted rule violation
func NewBusinessRuleError(format string, args ...interface{}) *BusinessRuleError {
	return &BusinessRuleError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError payload-level problem on a named field, surfaced as 400
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// OverDeliveryError quantity-cap violation. Carries the quantities involved so the
// caller sees exactly what was ordered, already received and attempted.
type OverDeliveryError struct {
	Ordered            float64
	PreviouslyReceived float64
	Attempted          float64
}

func (e *OverDeliveryError) Error() string {
	return fmt.Sprintf(
		"delivery exceeds ordered quantity: ordered %.2f, previously received %.2f, attempted %.2f",
		e.Ordered, e.PreviouslyReceived, e.Attempted,
	)
}
