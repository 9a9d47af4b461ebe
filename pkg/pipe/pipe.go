// Package pipe defines the step contract of the packaging pipeline and the
// ordered registry of steps.
package pipe

import (
	"errors"

	"github.com/bundlesmith/bundlesmith/pkg/context"
)

// Piper is one pipeline step. Steps run one after another on a shared
// context and only read artifacts that earlier steps recorded there.
type Piper interface {
	// String names the step in progress output.
	String() string

	// Run performs the step. Returning a value that implements IsSkip marks
	// the step as not applicable rather than failed.
	Run(ctx *context.Context) error
}

// IsSkip is implemented by errors that report an intentional skip.
// Step packages declare their own skip type so they need not import this
// package.
type IsSkip interface {
	IsSkip() bool
}

// SkipError is the skip value for code that can import this package.
type SkipError struct {
	Reason string
}

func (e SkipError) Error() string { return e.Reason }
func (e SkipError) IsSkip() bool  { return true }

// Skip returns a SkipError with the given reason.
func Skip(reason string) SkipError {
	return SkipError{Reason: reason}
}

// Skipped reports whether err, or anything it wraps, is a skip.
func Skipped(err error) bool {
	var s IsSkip
	return errors.As(err, &s) && s.IsSkip()
}
