package llm

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Chunk is one read from the upstream body. A chunk with Err set is the last
// one sent before the channel closes.
type Chunk struct {
	Data []byte
	Err  error
}

// Stream pipes an upstream body to a consumer through a channel, one
// fixed-size read at a time, in arrival order.
type Stream struct {
	body      io.ReadCloser
	chunks    chan Chunk
	done      chan struct{}
	closeOnce sync.Once
}

// NewStream starts the read loop over body. Reads are at most chunkSize
// bytes; empty reads are dropped. The loop stops on EOF, on a read error,
// when ctx is done, or on Close.
func NewStream(ctx context.Context, body io.ReadCloser, chunkSize int) *Stream {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	s := &Stream{
		body:   body,
		chunks: make(chan Chunk),
		done:   make(chan struct{}),
	}
	go s.readLoop(ctx, chunkSize)
	return s
}

func (s *Stream) Chunks() <-chan Chunk {
	return s.chunks
}

// Close stops the read loop and releases the upstream body. Safe to call more
// than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.body.Close()
	})
	return err
}

func (s *Stream) readLoop(ctx context.Context, chunkSize int) {
	defer close(s.chunks)
	for {
		buf := make([]byte, chunkSize)
		n, err := s.body.Read(buf)
		if n > 0 {
			if !s.send(ctx, Chunk{Data: buf[:n]}) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.send(ctx, Chunk{Err: err})
			}
			return
		}
	}
}

func (s *Stream) send(ctx context.Context, c Chunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}
