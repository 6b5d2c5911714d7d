package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

type port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

var openPort = func(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Serial listens on a local serial port, 8N1.
type Serial struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

func (s *Serial) Name() string { return "serial:" + s.Port }

func (s *Serial) Open(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := openPort(s.Port, &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", s.Port, err)
	}

	if err := p.SetReadTimeout(s.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", s.Port, err)
	}

	return &serialConn{lineReader: newLineReader(p, io.ErrUnexpectedEOF), port: p}, nil
}

type serialConn struct {
	*lineReader
	port port
}

func (c *serialConn) Close() error { return c.port.Close() }
