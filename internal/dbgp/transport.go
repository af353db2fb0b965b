// Package dbgp implements the DBGp remote debugging protocol spoken by the
// debuggee, and the property data model the presentation engine consumes.
package dbgp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
)

// Transport moves DBGp frames to and from a debuggee.
type Transport interface {
	// Send writes one command line. The terminating NUL is added by the transport.
	Send(command []byte) error

	// Receive reads one packet body (the XML document).
	Receive() ([]byte, error)

	// Close closes the transport.
	Close() error
}

// MaxPacketLength is the maximum accepted packet length (64MB).
const MaxPacketLength = 64 * 1024 * 1024

// SocketTransport implements Transport over a TCP connection.
type SocketTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewSocketTransport creates a transport from an accepted connection.
func NewSocketTransport(conn net.Conn) *SocketTransport {
	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Listen accepts a single debuggee connection on address. The debuggee is
// the dialing side in DBGp, so the adapter listens.
func Listen(ctx context.Context, address string) (*SocketTransport, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", address, err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		accepted <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		if r := <-accepted; r.conn != nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	case r := <-accepted:
		if r.err != nil {
			return nil, fmt.Errorf("accept: %w", r.err)
		}
		return NewSocketTransport(r.conn), nil
	}
}

// Send sends a command to the debuggee.
func (t *SocketTransport) Send(command []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeCommand(t.conn, command)
}

// Receive receives a packet from the debuggee.
func (t *SocketTransport) Receive() ([]byte, error) {
	return readPacket(t.reader)
}

// Close closes the connection.
func (t *SocketTransport) Close() error {
	return t.conn.Close()
}

// RemoteAddr returns the debuggee's address.
func (t *SocketTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

// writeCommand writes command followed by a NUL byte.
func writeCommand(w io.Writer, command []byte) error {
	buf := make([]byte, 0, len(command)+1)
	buf = append(buf, command...)
	buf = append(buf, 0)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// readPacket reads one length\0xml\0 frame.
func readPacket(r *bufio.Reader) ([]byte, error) {
	header, err := r.ReadString(0)
	if err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	length, err := strconv.Atoi(header[:len(header)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid length %q", ErrMalformedFrame, header[:len(header)-1])
	}
	if length < 0 || length > MaxPacketLength {
		return nil, fmt.Errorf("%w: length %d exceeds maximum allowed %d", ErrMalformedFrame, length, MaxPacketLength)
	}

	content := make([]byte, length+1)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if content[length] != 0 {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformedFrame)
	}

	return content[:length], nil
}

// RawTransport wraps any io.ReadWriteCloser as a Transport.
type RawTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewRawTransport creates a transport from any ReadWriteCloser.
func NewRawTransport(rwc io.ReadWriteCloser) *RawTransport {
	return &RawTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// Send sends a command.
func (t *RawTransport) Send(command []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeCommand(t.rwc, command)
}

// Receive receives a packet.
func (t *RawTransport) Receive() ([]byte, error) {
	return readPacket(t.reader)
}

// Close closes the underlying connection.
func (t *RawTransport) Close() error {
	return t.rwc.Close()
}
