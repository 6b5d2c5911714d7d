package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// TCP attaches to a device (or serial bridge) that streams the wire format over TCP.
type TCP struct {
	Address     string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

func (t *TCP) Name() string { return "tcp:" + t.Address }

func (t *TCP) Open(ctx context.Context) (Conn, error) {
	d := net.Dialer{Timeout: t.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.Address, err)
	}

	lr := newLineReader(conn, io.ErrUnexpectedEOF)
	if t.ReadTimeout > 0 {
		lr.beforeRead = func() error {
			return conn.SetReadDeadline(time.Now().Add(t.ReadTimeout))
		}
	}

	return &tcpConn{lineReader: lr, conn: conn}, nil
}

type tcpConn struct {
	*lineReader
	conn net.Conn
}

func (c *tcpConn) Close() error { return c.conn.Close() }
