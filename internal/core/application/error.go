package application

import (
	"errors"
	"fmt"

	"github.com/revault/revault-gui/internal/core/ports"
)

// Error is the closed set of errors shown to the user: ConfigError,
// RevaultDError or UnexpectedError.
type Error interface {
	error
	isError()
}

// ConfigError is a configuration failure raised outside the vault core.
type ConfigError struct {
	Err error
}

func (e ConfigError) Error() string { return e.Err.Error() }
func (e ConfigError) Unwrap() error { return e.Err }
func (ConfigError) isError()        {}

// RevaultDError is a classified failure of a daemon call.
type RevaultDError struct {
	Err *ports.DaemonError
}

func (e RevaultDError) Error() string { return e.Err.Error() }
func (e RevaultDError) Unwrap() error { return e.Err }
func (RevaultDError) isError()        {}

// UnexpectedError reports a broken invariant inside the client itself.
type UnexpectedError struct {
	Message string
}

func (e UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %s", e.Message)
}
func (UnexpectedError) isError() {}

// NewConfigError ...
func NewConfigError(err error) Error {
	return ConfigError{err}
}

// NewError converts the error of a daemon call or signing device into an
// Error. It returns nil for a nil error.
func NewError(err error) Error {
	if err == nil {
		return nil
	}

	var appErr Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var daemonErr *ports.DaemonError
	if errors.As(err, &daemonErr) {
		return RevaultDError{daemonErr}
	}

	return UnexpectedError{err.Error()}
}
