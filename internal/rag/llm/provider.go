package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrUpstreamStatus = errors.New("model service returned a non-200 status")

type Provider interface {
	// Stream starts a generation. A returned error means nothing was
	// streamed; once a Stream is returned the caller must Close it.
	Stream(ctx context.Context, prompt string) (*Stream, error)
}

type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("model service returned status %d", e.StatusCode)
}

func (e *UpstreamStatusError) Unwrap() error {
	return ErrUpstreamStatus
}
