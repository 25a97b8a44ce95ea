package utils

import (
	"math"
	"regexp"
	"strings"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

var (
	// EmailRegex validates email addresses
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// EntityIDRegex validates generated device and account ids
	EntityIDRegex = regexp.MustCompile(`^(DEV|ACC)_[0-9A-Za-z]+$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !EmailRegex.MatchString(email) {
		return errors.NewValidationError("invalid email format")
	}
	return nil
}

// ValidateEntityID validates a device or account id
func ValidateEntityID(id string) error {
	if !EntityIDRegex.MatchString(id) {
		return errors.NewValidationError("invalid id format, expected DEV_... or ACC_...")
	}
	return nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}

// ValidatePositiveAmount validates that an amount is a finite number above zero
func ValidatePositiveAmount(value float64, fieldName string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.NewValidationError(fieldName + " must be a number")
	}
	if value <= 0 {
		return errors.NewValidationError(fieldName + " must be positive")
	}
	return nil
}

// ValidateFiniteAmount validates that an amount is a finite number
func ValidateFiniteAmount(value float64, fieldName string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.NewValidationError(fieldName + " must be a number")
	}
	return nil
}

// ValidateOneOf validates that value is one of allowed
func ValidateOneOf(value string, allowed []string, fieldName string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return errors.NewValidationError(fieldName + " must be one of " + strings.Join(allowed, ", "))
}
