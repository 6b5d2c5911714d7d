package source

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type readResult struct {
	data string
	err  error
}

// scriptedReader returns one scripted result per Read call, then io.EOF.
type scriptedReader struct {
	reads  []readResult
	closed bool
}

func (s *scriptedReader) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, io.EOF
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return copy(p, r.data), r.err
}

func (s *scriptedReader) Close() error {
	s.closed = true
	return nil
}

func (s *scriptedReader) SetReadTimeout(time.Duration) error { return nil }

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestLineReaderJoinsPartialReads(t *testing.T) {
	r := &scriptedReader{reads: []readResult{
		{data: "T:50.0"},
		{data: "0,V:5.00,S:OK\nT:51"},
		{data: ".00,V:5.00,S:OK\n"},
	}}
	lr := newLineReader(r, ErrEndOfStream)

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:50.00,V:5.00,S:OK\n", string(line))

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:51.00,V:5.00,S:OK\n", string(line))

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestLineReaderIdle(t *testing.T) {
	r := &scriptedReader{reads: []readResult{
		{data: ""},
		{data: "T:1", err: timeoutErr{}},
		{data: ",V:2,S:3\n"},
	}}
	lr := newLineReader(r, io.ErrUnexpectedEOF)

	_, err := lr.ReadLine()
	assert.ErrorIs(t, err, ErrIdle)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, ErrIdle)

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:1,V:2,S:3\n", string(line))

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLineReaderFlushesUnterminatedTail(t *testing.T) {
	lr := newLineReader(&scriptedReader{reads: []readResult{{data: "T:1,V:2,S:3"}}}, ErrEndOfStream)

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:1,V:2,S:3", string(line))

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestLineReaderSplitsOverlongLines(t *testing.T) {
	long := make([]byte, maxLineLength+10)
	for i := range long {
		long[i] = 'A'
	}
	lr := newLineReader(&scriptedReader{reads: []readResult{{data: string(long)}}}, ErrEndOfStream)
	lr.chunk = make([]byte, len(long))

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, maxLineLength)

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, 10)
}

func TestLineReaderSplitsOverlongLinesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("A", maxLineLength-1) + "°C tail"
	lr := newLineReader(&scriptedReader{reads: []readResult{{data: long}}}, ErrEndOfStream)
	lr.chunk = make([]byte, len(long))

	head, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Len(t, head, maxLineLength-1)
	assert.True(t, utf8.Valid(head))

	tail, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "°C tail", string(tail))
}

func TestLineReaderPassesHardErrors(t *testing.T) {
	boom := errors.New("port removed")
	lr := newLineReader(&scriptedReader{reads: []readResult{{err: boom}}}, ErrEndOfStream)

	_, err := lr.ReadLine()
	assert.ErrorIs(t, err, boom)
}

func TestSerialOpen(t *testing.T) {
	fake := &scriptedReader{reads: []readResult{{data: "T:48.13,V:5.04,S:NORMAL\n"}}}
	var gotName string
	var gotMode *serial.Mode

	orig := openPort
	t.Cleanup(func() { openPort = orig })
	openPort = func(name string, mode *serial.Mode) (port, error) {
		gotName, gotMode = name, mode
		return fake, nil
	}

	src := &Serial{Port: "/dev/ttyUSB0", BaudRate: 9600, ReadTimeout: time.Second}
	assert.Equal(t, "serial:/dev/ttyUSB0", src.Name())

	conn, err := src.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", gotName)
	assert.Equal(t, 9600, gotMode.BaudRate)

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:48.13,V:5.04,S:NORMAL\n", string(line))

	require.NoError(t, conn.Close())
	assert.True(t, fake.closed)
}

func TestSerialOpenFailure(t *testing.T) {
	orig := openPort
	t.Cleanup(func() { openPort = orig })
	openPort = func(string, *serial.Mode) (port, error) {
		return nil, errors.New("no such port")
	}

	_, err := (&Serial{Port: "COM6", BaudRate: 9600}).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COM6")
}

func TestTCPSource(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("T:50.00,V:5.00,S:NORMAL\n"))
		time.Sleep(150 * time.Millisecond)
		c.Write([]byte("T:51.00,V:5.00,S:NORMAL\n"))
		c.Close()
	}()

	src := &TCP{Address: ln.Addr().String(), DialTimeout: time.Second, ReadTimeout: 50 * time.Millisecond}
	conn, err := src.Open(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	var lines []string
	idle := 0
	for {
		line, err := conn.ReadLine()
		if errors.Is(err, ErrIdle) {
			idle++
			continue
		}
		if err != nil {
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			break
		}
		lines = append(lines, string(line))
	}

	assert.Equal(t, []string{"T:50.00,V:5.00,S:NORMAL\n", "T:51.00,V:5.00,S:NORMAL\n"}, lines)
	assert.Positive(t, idle)
}

func TestTCPSourceUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = (&TCP{Address: addr, DialTimeout: time.Second}).Open(context.Background())
	assert.Error(t, err)
}

func TestReplaySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.txt")
	require.NoError(t, os.WriteFile(path, []byte("T:50.00,V:5.00,S:NORMAL\r\n\nT:bad\n"), 0o644))

	conn, err := (&Replay{Path: path}).Open(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	var lines []string
	for {
		line, err := conn.ReadLine()
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}

	assert.Equal(t, []string{"T:50.00,V:5.00,S:NORMAL\r\n", "\n", "T:bad\n"}, lines)
}

func TestReplayStdin(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer SwapStdin(r)()

	conn, err := (&Replay{Path: "-"}).Open(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	_, err = w.WriteString("T:50.00,V:5.00,S:NORMAL\nT:51")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:50.00,V:5.00,S:NORMAL\n", string(line))

	line, err = conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "T:51", string(line))

	_, err = conn.ReadLine()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestReplayStdinCloseUnblocksRead(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer SwapStdin(r)()

	conn, err := (&Replay{Path: "-"}).Open(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conn.ReadLine()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine still blocked after Close")
	}
}

func TestReplayMissingFile(t *testing.T) {
	_, err := (&Replay{Path: filepath.Join(t.TempDir(), "missing.txt")}).Open(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
