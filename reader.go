package matchmaker

import (
	"bufio"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	// readerBufSize is the starting buffer capacity for the line reader.
	readerBufSize = 64 * 1024

	// readerMaxLine caps a single record. A longer line ends the stream
	// without an error; the lines read before it are kept.
	readerMaxLine = 16 * 1024 * 1024
)

// MapFunc optionally transforms or rejects each ingested line. Returning
// an error aborts the stream with a MapReaderError.
type MapFunc func(string) (string, error)

// Pusher is the reader's write target; the injector chain head satisfies
// it.
type Pusher interface {
	Push(string) error
}

// StdinIsTTY reports whether stdin is attached to a terminal. When it is
// not, stdin is the item source.
func StdinIsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readLines streams r line by line into the pusher on the calling
// goroutine; callers run it on a blocking OS thread of their own. A line over
// readerMaxLine ends the stream and returns nil; nothing after it is read.
// The first mapper error aborts the stream.
func readLines(r io.Reader, push Pusher, mapper MapFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, readerBufSize), readerMaxLine)

	count := 0
	for scanner.Scan() {
		line := scanner.Text()
		if mapper != nil {
			mapped, err := mapper(line)
			if err != nil {
				log.Error().Err(err).Int("lines", count).Msg("map reader aborted")
				return MapReaderError{Line: line, Count: count, Err: err}
			}
			line = mapped
		}
		if err := push.Push(line); err != nil {
			// A stale injector means the worker restarted; drop the rest.
			log.Debug().Err(err).Msg("reader push dropped")
			return nil
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			log.Warn().Msg("input line exceeded the record cap; stream aborted")
			return nil
		}
		return err
	}
	return nil
}

// ReadFrom ingests an io.Reader in the background. The returned channel
// yields the terminal error (nil on clean EOF) and closes.
func ReadFrom(r io.Reader, push Pusher, mapper MapFunc) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := readLines(r, push, mapper); err != nil {
			errc <- err
		}
	}()
	return errc
}

// ReadCommand spawns `sh -c command`, ingests its stdout in the
// background, and reaps the child when the stream ends.
func ReadCommand(command string, env []string, push Pusher, mapper MapFunc) (<-chan error, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil
	cmd.Stderr = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		readErr := readLines(stdout, push, mapper)
		waitErr := cmd.Wait()
		if readErr != nil {
			errc <- readErr
			return
		}
		if waitErr != nil {
			// Nonzero exit with output already ingested is not fatal.
			log.Debug().Err(waitErr).Str("cmd", command).Msg("source command exited")
		}
	}()
	return errc, nil
}
