// Package errors provides the error handling primitives used throughout
// codesync: a thin re-export of github.com/pkg/errors for wrapping and a
// Fatal marker for errors that must abort the startup sequence outright.
package errors

import "github.com/pkg/errors"

// re-export the functions from github.com/pkg/errors so that every package
// in this module can depend on a single errors import.
var (
	New    = errors.New
	Errorf = errors.Errorf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Cause  = errors.Cause
	As     = errors.As
	Is     = errors.Is
)

type withFatal struct {
	error
}

// Fatal marks an error as fatal, causing the process to print the message
// and exit instead of continuing. Used by the startup validator for
// conditions that make it pointless to continue (unauthenticated, upgrade
// required).
func Fatal(s string) error {
	return withFatal{New(s)}
}

// Fatalf creates an error from the given format and arguments and marks it
// as fatal.
func Fatalf(s string, args ...interface{}) error {
	return withFatal{Errorf(s, args...)}
}

// IsFatal checks whether the error was marked as fatal using Fatal or
// Fatalf. Unwraps wrapped errors to find the marker.
func IsFatal(err error) bool {
	_, ok := Cause(err).(withFatal)
	return ok
}
