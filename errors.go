// Package matchmaker is an interactive terminal fuzzy selector engine:
// records stream in through an injector pipeline, a columnar incremental
// matcher keeps a live table of best matches, and a bindable action
// dispatcher drives selection, previews, and scripted side-effects.
package matchmaker

import (
	"errors"
	"fmt"
)

// AbortError is a user-initiated quit; it bubbles to the exit code.
type AbortError struct {
	Code int
}

func (e AbortError) Error() string {
	return fmt.Sprintf("aborted with code %d", e.Code)
}

// ErrNoMatch is returned when the session ends empty under the abort-empty
// policy. It maps to a distinct nonzero exit code.
var ErrNoMatch = errors.New("no match")

// BecomeResult is a terminal result, not a failure: the caller is expected
// to replace the process image with Command.
type BecomeResult struct {
	Command string
}

func (e BecomeResult) Error() string {
	return fmt.Sprintf("become: %s", e.Command)
}

// TUIError wraps a screen-surface failure. Fatal.
type TUIError struct {
	Msg string
}

func (e TUIError) Error() string {
	return "tui: " + e.Msg
}

// ErrEventLoopClosed signals that every render receiver is gone; treated as
// a clean EOF by the session.
var ErrEventLoopClosed = errors.New("event loop closed")

// MapReaderError reports a per-line user function failure during ingest.
// The stream is aborted on the first one; the count records how many lines
// were ingested before it.
type MapReaderError struct {
	Line  string
	Count int
	Err   error
}

func (e MapReaderError) Error() string {
	return fmt.Sprintf("map reader failed after %d lines: %v", e.Count, e.Err)
}

func (e MapReaderError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a configuration failure. Fatal at startup.
type ConfigError struct {
	Err error
}

func (e ConfigError) Error() string {
	return "config: " + e.Err.Error()
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// ErrNoInput is returned when neither stdin nor a configured command
// provides items.
var ErrNoInput = errors.New("no input detected")

// Exit codes for the CLI surface.
const (
	ExitAccept  = 0
	ExitQuit    = 1
	ExitNoMatch = 2
	ExitNoInput = 99
)

// ExitCode maps a session result error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitAccept
	}
	var abort AbortError
	switch {
	case errors.As(err, &abort):
		return abort.Code
	case errors.Is(err, ErrNoMatch):
		return ExitNoMatch
	case errors.Is(err, ErrNoInput):
		return ExitNoInput
	default:
		return ExitQuit
	}
}
