package service

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeStorage    = "STORAGE_ERROR"
)

// BusinessError is the only error type the service hands to the transport
// layer. Code selects the response, Details end up in the error log.
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}
	return busErr
}

func NewNotFound(resource string, id int64) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %d not found", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id))
}

func NewValidationError(violations ValidationErrors) *BusinessError {
	busErr := NewBusinessError(CodeValidation,
		"submitted fields are invalid",
		ToDetail("fields", violations.ByField()))
	busErr.Err = violations
	return busErr
}

func NewStorageError(operation string, err error) *BusinessError {
	busErr := NewBusinessError(CodeStorage,
		fmt.Sprintf("storage failure during %s", operation),
		ToDetail("operation", operation))
	busErr.Err = err
	return busErr
}

// HasCode reports whether err is a BusinessError with the given code.
func HasCode(err error, code string) bool {
	var busErr *BusinessError
	return errors.As(err, &busErr) && busErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// AsValidation extracts the field violations of a validation failure.
func AsValidation(err error) (ValidationErrors, bool) {
	var violations ValidationErrors
	if !HasCode(err, CodeValidation) || !errors.As(err, &violations) {
		return nil, false
	}
	return violations, true
}
