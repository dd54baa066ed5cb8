package errors

import "errors"

// Exit codes returned by the command-line entrypoint.
const (
	ExitCodeSuccess        = 0
	ExitCodeOperational    = 1
	ExitCodeConfiguration  = 2
	ExitCodeNotFound       = 3
	ExitCodeNotInWorkspace = 4
)

// ExitCoder is implemented by errors that carry their own process exit code.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode maps an error to the process exit code. A BatchError maps to its first failure.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var batchError BatchError
	if errors.As(err, &batchError) && len(batchError.Failures) > 0 {
		return ExitCode(batchError.Failures[0])
	}

	var exitCoder ExitCoder
	if errors.As(err, &exitCoder) {
		if code := exitCoder.ExitCode(); code != ExitCodeSuccess {
			return code
		}
		return ExitCodeOperational
	}

	switch {
	case errors.Is(err, ErrConfig), errors.Is(err, ErrUsage):
		return ExitCodeConfiguration
	case errors.Is(err, ErrNotFound):
		return ExitCodeNotFound
	case errors.Is(err, ErrNotInWorkspace):
		return ExitCodeNotInWorkspace
	default:
		return ExitCodeOperational
	}
}
