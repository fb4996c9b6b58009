package accounts

import (
	"errors"
	"fmt"
)

// Error types shared by the user and profile services

// NotFoundError represents a lookup of a record that does not exist
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found error for id %s: %s", e.Resource, e.ID, e.Message)
}

// Resource names used in errors and log fields
const (
	ResourceUser    = "user"
	ResourceProfile = "profile"
)

// NewUserNotFoundError creates an error for when a user is not found
func NewUserNotFoundError(userID string) *NotFoundError {
	return &NotFoundError{
		Resource: ResourceUser,
		ID:       userID,
		Message:  "User not found",
	}
}

// NewProfileNotFoundError creates an error for when a profile is not found
func NewProfileNotFoundError(profileID string) *NotFoundError {
	return &NotFoundError{
		Resource: ResourceProfile,
		ID:       profileID,
		Message:  "Profile not found",
	}
}

// ValidationError represents malformed input or a violated uniqueness or
// referential-integrity constraint
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error for field '%s' (value: %v): %s (caused by: %v)", e.Field, e.Value, e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewValidationErrorWithCause creates a new validation error with a cause
func NewValidationErrorWithCause(field string, value interface{}, message string, cause error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Cause:   cause,
	}
}

// Constraint violations

func NewEmailExistsError(email string) *ValidationError {
	return NewValidationError("email", email, "Email already exists")
}

func NewPhoneExistsError(phone string) *ValidationError {
	return NewValidationError("phone", phone, "Phone already exists")
}

func NewUsernameExistsError(username string) *ValidationError {
	return NewValidationError("username", username, "Username already exists")
}

func NewOwnerMissingError(userID string) *ValidationError {
	return NewValidationError("user_id", userID, "User does not exist")
}

func NewOwnerHasProfileError(userID string) *ValidationError {
	return NewValidationError("user_id", userID, "User already has a profile")
}

func NewImmutableFieldError(field string) *ValidationError {
	return NewValidationError(field, nil, fmt.Sprintf("%s is immutable", field))
}

// IsNotFound reports whether err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
