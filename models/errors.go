package models

import (
	"errors"
	"fmt"
)

// Error codes carried by PostError and surfaced in the error report.
const (
	ErrCodeArgument     = "ARGUMENT_ERROR"
	ErrCodeCredential   = "CREDENTIAL_ERROR"
	ErrCodeContent      = "CONTENT_ERROR"
	ErrCodeAuth         = "AUTH_ERROR"
	ErrCodeNavigation   = "NAVIGATION_ERROR"
	ErrCodeEditor       = "EDITOR_ERROR"
	ErrCodePublish      = "PUBLISH_ERROR"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error written to stderr on fatal failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// PostError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PostError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// NewPostError creates a new PostError.
func NewPostError(code, message string, err error) *PostError {
	return &PostError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to the reported ErrorDetail.
func (e *PostError) ToDetail() *ErrorDetail {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return &ErrorDetail{Code: e.Code, Message: msg}
}

// CodeOf returns the code of the first PostError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var pe *PostError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}

// DetailOf converts any error into an ErrorDetail.
func DetailOf(err error) *ErrorDetail {
	var pe *PostError
	if errors.As(err, &pe) {
		return pe.ToDetail()
	}
	return &ErrorDetail{Code: ErrCodeInternal, Message: err.Error()}
}
