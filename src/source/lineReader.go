package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

const (
	readChunkSize = 512
	// A line longer than this is handed on unterminated; it will fail the grammar.
	maxLineLength = 4096
)

// lineReader splits a byte stream into newline-terminated chunks, keeping
// partial lines across reads.
type lineReader struct {
	r       io.Reader
	pending []byte
	chunk   []byte
	// beforeRead arms a read deadline where the transport needs one.
	beforeRead func() error
	// atEOF is returned once the stream ends and nothing is pending.
	atEOF error
}

func newLineReader(r io.Reader, atEOF error) *lineReader {
	return &lineReader{r: r, chunk: make([]byte, readChunkSize), atEOF: atEOF}
}

func (l *lineReader) ReadLine() ([]byte, error) {
	for {
		if line, ok := l.next(); ok {
			return line, nil
		}

		if l.beforeRead != nil {
			if err := l.beforeRead(); err != nil {
				return nil, err
			}
		}

		n, err := l.r.Read(l.chunk)
		l.pending = append(l.pending, l.chunk[:n]...)

		switch {
		case err == nil && n == 0:
			// Serial ports report a timeout as an empty read.
			if bytes.IndexByte(l.pending, '\n') < 0 {
				return nil, ErrIdle
			}
		case err == nil:
		case isTimeout(err):
			if bytes.IndexByte(l.pending, '\n') < 0 && len(l.pending) < maxLineLength {
				return nil, ErrIdle
			}
		case errors.Is(err, io.EOF):
			if line, ok := l.next(); ok {
				return line, nil
			}
			if len(l.pending) > 0 {
				line := l.pending
				l.pending = nil
				return line, nil
			}
			return nil, l.atEOF
		default:
			return nil, err
		}
	}
}

func (l *lineReader) next() ([]byte, bool) {
	i := bytes.IndexByte(l.pending, '\n')
	if i < 0 {
		if len(l.pending) < maxLineLength {
			return nil, false
		}
		// Cut before a rune that straddles the limit so the tail still decodes.
		n := maxLineLength
		for k := 1; k < utf8.UTFMax && n < len(l.pending) && !utf8.RuneStart(l.pending[n]); k++ {
			n--
		}
		i = n - 1
	}

	line := make([]byte, i+1)
	copy(line, l.pending[:i+1])
	l.pending = l.pending[i+1:]
	return line, true
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
