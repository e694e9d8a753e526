package mdmake

import (
	"errors"
	"fmt"

	"github.com/yaklabco/mdmake/graph"
	"github.com/yaklabco/mdmake/sh"
)

// Process exit codes. These are the contract with the invoking environment;
// recipe failures propagate the child's own status when it carries one.
const (
	ExitOK               = 0
	ExitConfigMissing    = 1
	ExitConfigUnreadable = 2
	ExitMissingFile      = 3
	ExitRecipeFailed     = 4
	ExitUnknownTarget    = 5
	ExitBadStyle         = 6
)

// ExitError couples an error with the process exit code it maps to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func exitErrf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// ExitCode extracts the process exit code for err: 0 for nil, the carried
// code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

// mapRunError wraps errors from graph construction and recipe execution in
// the exit code they carry to the invoking environment.
func mapRunError(err error) error {
	if err == nil {
		return nil
	}
	var unknown *graph.UnknownTargetError
	if errors.As(err, &unknown) {
		return &ExitError{Code: ExitUnknownTarget, Err: err}
	}
	var cycle *graph.CycleError
	if errors.As(err, &cycle) {
		return &ExitError{Code: ExitUnknownTarget, Err: err}
	}
	var missing *sh.MissingFileError
	if errors.As(err, &missing) {
		return &ExitError{Code: ExitMissingFile, Err: err}
	}
	var recipe *sh.RecipeError
	if errors.As(err, &recipe) {
		code := recipe.Status
		if code <= 0 {
			code = ExitRecipeFailed
		}
		return &ExitError{Code: code, Err: err}
	}
	return err
}
