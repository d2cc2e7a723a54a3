package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError carries the status code a handler should answer with.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Code: %d, Message: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func New(code int, message string) error {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches a status code and public message to err.
func Wrap(code int, message string, err error) error {
	return &HTTPError{Code: code, Message: message, Err: err}
}

// StatusOf returns the status code carried by err, or 500.
func StatusOf(err error) (int, string) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code, he.Message
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
