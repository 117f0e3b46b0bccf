package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(code, msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Err: errors.New(msg)}
}

func NotFound(code string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code}
}

func Internal(code string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: code, Err: err}
}

// Status returns the HTTP status carried by err, or 500 for plain errors.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Code returns the machine code carried by err, if any.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
