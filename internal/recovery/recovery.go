// Package recovery turns panics into a logged exit at the top of main, or
// into ordinary errors around operations that handle untrusted input.
package recovery

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// ErrPanic marks an error produced by Guard from a recovered panic
var ErrPanic = errors.New("recovered panic")

// HandlePanic should be deferred at the top of main().
// It prints the panic and stack trace and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fatal(r, nil)
	}
}

// HandlePanicFunc prints the panic, runs cleanup, and exits with code 1.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		fatal(r, cleanup)
	}
}

func fatal(r any, cleanup func()) {
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
	if cleanup != nil {
		cleanup()
	}
	os.Exit(1)
}

// Guard runs fn and converts a panic inside it into an error wrapping
// ErrPanic, so a malformed upload fails one request instead of the process.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
