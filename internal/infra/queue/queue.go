// Package queue provides the asynchronous job layer that decouples request
// handling from slow side effects such as email delivery. Jobs carry small
// JSON payloads (usually just record IDs) and handlers re-fetch fresh state,
// so delivery is at-least-once and handlers must tolerate replays.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies a job type. Handlers are registered per kind.
type Kind string

// Job is a single unit of asynchronous work.
type Job struct {
	// ID uniquely identifies this submission for logging and tracing.
	ID string

	// Kind selects the handler that will process the job.
	Kind Kind

	// Payload is the JSON-encoded job argument.
	Payload []byte

	// Attempt is the 1-based execution attempt, set by the queue.
	Attempt int

	// EnqueuedAt is when the job was accepted.
	EnqueuedAt time.Time
}

// HandlerFunc processes a job. Returning nil acknowledges the job; returning
// an error triggers a retry unless the error is terminal.
type HandlerFunc func(ctx context.Context, job Job) error

// Queue accepts jobs for asynchronous execution.
type Queue interface {
	// Submit enqueues a job of the given kind and returns its ID. It
	// fails if the queue is shut down or the buffer is full.
	Submit(ctx context.Context, kind Kind, payload []byte) (string, error)
}

// ErrShutdown is returned by Submit after Shutdown has begun.
var ErrShutdown = errors.New("queue: shut down")

// ErrFull is returned by Submit when the buffer has no room.
var ErrFull = errors.New("queue: buffer full")

// TerminalError marks a job failure that must not be retried, such as a
// payload referencing a deleted record.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal: %v", e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// Terminal wraps err so the queue drops the job instead of retrying it.
func Terminal(err error) error {
	return &TerminalError{Err: err}
}

// IsTerminal reports whether err (or anything it wraps) is terminal.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}
