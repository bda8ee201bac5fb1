package fins

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// udpChannel is a connected UDP datagram channel (spec §4.4).
type udpChannel struct {
	host string
	port int

	localNode  byte
	remoteNode byte

	mu    sync.Mutex
	state channelState
	conn  *net.UDPConn
	buf   []byte
}

func newUDPChannel(host string, port int, localNode, remoteNode byte) *udpChannel {
	return &udpChannel{host: host, port: port, localNode: localNode, remoteNode: remoteNode}
}

func (c *udpChannel) open(ctx context.Context) (byte, byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateReady {
		return c.localNode, c.remoteNode, nil
	}
	c.state = stateConnecting

	raddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.host, c.port))
	if err != nil {
		c.state = stateUninitialized
		return 0, 0, TransportError{Cause: err}
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", raddr.String())
	if err != nil {
		c.state = stateUninitialized
		return 0, 0, TransportError{Cause: err}
	}
	c.conn = conn.(*net.UDPConn)
	c.buf = nil
	c.state = stateReady
	return c.localNode, c.remoteNode, nil
}

func (c *udpChannel) send(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state == stateClosed {
		return ChannelClosedError{}
	}
	if state != stateReady || conn == nil {
		return TransportError{Cause: errors.New("channel not open")}
	}
	if _, err := conn.Write(frame); err != nil {
		return TransportError{Cause: err}
	}
	return nil
}

// recv accumulates datagrams into an internal buffer until at least 14
// bytes are present and the first byte matches a FINS response header
// start (spec §4.4).
func (c *udpChannel) recv(ctx context.Context, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state == stateClosed {
		return nil, ChannelClosedError{}
	}
	if state != stateReady || conn == nil {
		return nil, TransportError{Cause: errors.New("channel not open")}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	packet := make([]byte, 4096)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, TransportError{Cause: err}
		}
		n, err := conn.Read(packet)
		if err != nil {
			c.mu.Lock()
			c.buf = nil
			c.mu.Unlock()
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, TimeoutError{Op: "udp recv"}
			}
			if errors.Is(err, net.ErrClosed) {
				return nil, ChannelClosedError{}
			}
			return nil, TransportError{Cause: err}
		}

		c.mu.Lock()
		c.buf = append(c.buf, packet[:n]...)
		buf := c.buf
		c.mu.Unlock()

		if len(buf) >= minResponseLen && looksLikeFinsHeader(buf[0]) {
			c.mu.Lock()
			c.buf = nil
			c.mu.Unlock()
			return buf, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}

// purge drains readable datagrams for up to timeout, discarding them and
// absorbing any read error, per spec §4.4/§9 (no queryable byte-available
// count is assumed).
func (c *udpChannel) purge(timeout time.Duration) {
	c.mu.Lock()
	conn := c.conn
	c.buf = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}
	deadline := time.Now().Add(timeout)
	packet := make([]byte, 4096)
	for {
		if time.Now().After(deadline) {
			return
		}
		_ = conn.SetReadDeadline(deadline)
		if _, err := conn.Read(packet); err != nil {
			return
		}
	}
}

func (c *udpChannel) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return TransportError{Cause: err}
	}
	return nil
}
