package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// stdin is swapped in tests.
var stdin io.ReadCloser = os.Stdin

// Replay feeds a captured session from a file, or from stdin when Path is "-".
// It ends with ErrEndOfStream.
type Replay struct {
	Path string
}

func (r *Replay) Name() string { return "replay:" + r.Path }

func (r *Replay) Open(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.Path == "-" {
		p := newPipeReader(stdin)
		return &replayConn{lineReader: newLineReader(p, ErrEndOfStream), closer: p}, nil
	}

	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open replay %s: %w", r.Path, err)
	}

	return &replayConn{lineReader: newLineReader(f, ErrEndOfStream), closer: f}, nil
}

type replayConn struct {
	*lineReader
	closer io.Closer
}

func (c *replayConn) Close() error { return c.closer.Close() }

type readChunk struct {
	data []byte
	err  error
}

// pipeReader reads from a goroutine so Close can abandon a read the
// underlying file never completes. A terminal on stdin is not pollable, and
// closing it does not interrupt a blocked read.
type pipeReader struct {
	src    io.ReadCloser
	chunks chan readChunk
	done   chan struct{}
	once   sync.Once

	rest []byte
	err  error
}

func newPipeReader(src io.ReadCloser) *pipeReader {
	p := &pipeReader{src: src, chunks: make(chan readChunk), done: make(chan struct{})}
	go p.pump()
	return p
}

func (p *pipeReader) pump() {
	for {
		buf := make([]byte, readChunkSize)
		n, err := p.src.Read(buf)
		select {
		case p.chunks <- readChunk{data: buf[:n], err: err}:
		case <-p.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (p *pipeReader) Read(b []byte) (int, error) {
	if len(p.rest) == 0 && p.err == nil {
		select {
		case c := <-p.chunks:
			p.rest, p.err = c.data, c.err
		case <-p.done:
			return 0, io.ErrClosedPipe
		}
	}

	if len(p.rest) > 0 {
		n := copy(b, p.rest)
		p.rest = p.rest[n:]
		return n, nil
	}
	return 0, p.err
}

func (p *pipeReader) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.src.Close()
	})
	return err
}
