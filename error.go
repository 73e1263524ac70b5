package feedshot

import (
	"errors"
	"fmt"
)

const (
	// ErrConfig error code, the config has invalid dimensions or options, or the page is empty
	ErrConfig = "invalid config"
	// ErrRender error code, the page is unreachable or the render timed out
	ErrRender = "render failed"
	// ErrExtract error code, a planned rectangle exceeds the page image
	ErrExtract = "extract failed"
	// ErrIO error code, a file can't be read or written
	ErrIO = "io failed"
)

// Error of a run
type Error struct {
	Err     error
	Code    string
	Details interface{}
}

// Error ...
func (e *Error) Error() string {
	if e.Details == nil {
		return fmt.Sprintf("[feedshot] %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("[feedshot] %s: %v\n%v", e.Code, e.Err, e.Details)
}

// Unwrap ...
func (e *Error) Unwrap() error {
	return e.Err
}

// IsError type matches, it looks through the wrapped errors
func IsError(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
