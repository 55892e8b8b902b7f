package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitCodeSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		switch {
		case exitErr.silent:
		case exitErr.err != nil:
			fmt.Fprintf(stderr, FmtErrorWithCause, exitErr.message, exitErr.err)
		default:
			fmt.Fprintf(stderr, FmtError, exitErr.message)
		}
		return exitErr.code
	}

	// Unknown commands and bad flags end up here
	fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgUsage, err)
	return ExitCodeUsageError
}

// exitError carries the exit code of a failed command. A silent error has
// already reported itself on stdout.
type exitError struct {
	code    int
	message string
	err     error
	silent  bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(code int, message string, err error) error {
	return &exitError{code: code, message: message, err: err}
}

func failSilently(code int, message string) error {
	return &exitError{code: code, message: message, silent: true}
}
