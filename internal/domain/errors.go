package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a well-formed lookup that matched nothing. It is a normal
// outcome and callers should not log it as an error.
var ErrNotFound = errors.New("not found")

// ErrEmptyQuery rejects a blank search query before any cache or store access.
var ErrEmptyQuery = errors.New("search query must not be empty")

// UpstreamError wraps a failure from one of the external collaborators
// (backing store, embedder, generator) with enough context to tell which
// tier failed and how long the attempt took.
type UpstreamError struct {
	Op      string // the operation that was running
	Tier    string // which collaborator failed: "store", "embedding", "generation"
	Elapsed time.Duration
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s failed after %s: %v", e.Op, e.Tier, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError for a collaborator failure.
func NewUpstreamError(op, tier string, elapsed time.Duration, err error) *UpstreamError {
	return &UpstreamError{Op: op, Tier: tier, Elapsed: elapsed, Err: err}
}
