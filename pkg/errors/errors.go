package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrStationMismatch = errors.New("station code does not match authenticated device")

	ErrStationNotFound      = errors.New("station not found")
	ErrStationAlreadyExists = errors.New("station already exists")
	ErrStationInactive      = errors.New("station is inactive")

	ErrInvalidInput = errors.New("invalid input data")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
