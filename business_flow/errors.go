// Package businessflow contains the core business logic and use cases for the QR code service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountInactive = errors.New("account is inactive")

	// QR code errors
	ErrQRCodeNotFound     = errors.New("QR code not found")
	ErrShortCodeTaken     = errors.New("short code already exists")
	ErrContentRequired    = errors.New("content is required")
	ErrContentInvalid     = errors.New("content must be a valid URL")
	ErrShortCodeInvalid   = errors.New("short code contains invalid characters")
	ErrShortCodeExhausted = errors.New("could not generate a free short code")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsQRCodeNotFound(err error) bool {
	return errors.Is(err, ErrQRCodeNotFound)
}

func IsShortCodeTaken(err error) bool {
	return errors.Is(err, ErrShortCodeTaken)
}

func IsContentRequired(err error) bool {
	return errors.Is(err, ErrContentRequired)
}

func IsContentInvalid(err error) bool {
	return errors.Is(err, ErrContentInvalid)
}

func IsShortCodeInvalid(err error) bool {
	return errors.Is(err, ErrShortCodeInvalid)
}

func IsShortCodeExhausted(err error) bool {
	return errors.Is(err, ErrShortCodeExhausted)
}
