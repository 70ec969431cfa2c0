// Package main provides the assetcsv CLI: it keeps typed asset records in a
// local store and round-trips them through per-type CSV sheets.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// sysError marks err as an environment failure rather than bad input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemError(err error) error {
	if err == nil {
		return nil
	}
	return &sysError{err: err}
}

// exitCode maps an error to an exit code. Errors are user errors unless
// they were marked as system errors or come from a detached store.
func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) || errors.Is(err, types.ErrStoreDetached) {
		return exitSysError
	}
	return exitUserError
}
