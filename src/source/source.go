package source

import (
	"context"
	"errors"
)

var (
	// ErrIdle means no complete line arrived within the read timeout. Callers re-poll.
	ErrIdle = errors.New("source idle")
	// ErrEndOfStream means a finite source (a replay) has delivered its last line.
	ErrEndOfStream = errors.New("end of stream")
)

// Source is a device link that can be attached once per ingestion session.
type Source interface {
	Name() string
	Open(ctx context.Context) (Conn, error)
}

// Conn is an attached link. ReadLine blocks for at most the configured read
// timeout and returns one newline-delimited chunk, ErrIdle or ErrEndOfStream.
// Close must unblock a pending ReadLine.
type Conn interface {
	ReadLine() ([]byte, error)
	Close() error
}
