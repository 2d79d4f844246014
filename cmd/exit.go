package cmd

import "fmt"

// ExitError carries a process exit code out of a command, optionally with
// a one-line message for stderr.
type ExitError struct {
	code    int
	message string
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *ExitError) Code() int {
	if e == nil {
		return 1
	}
	return e.code
}

func (e *ExitError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// ValidationError rejects the command line before any OS state is
// touched.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, a ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, a...)}
}
