package fins

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	tcpMagic = "FINS"

	tcpCmdNodeAddressRequest uint32 = 0
	tcpCmdNodeAddressReply   uint32 = 1
	tcpCmdFinsFrame          uint32 = 2
)

// tcpErrorMessage returns the message for a FINS/TCP envelope error-field
// code (spec §4.5).
func tcpErrorMessage(code uint32) string {
	switch code {
	case 0:
		return "normal"
	case 1:
		return "FINS header (magic) is not correct"
	case 2:
		return "data length is too long"
	case 3:
		return "command is not supported"
	case 20:
		return "all connections are in use"
	case 21:
		return "node address is already connected"
	case 22:
		return "attempt to access a protected node from an unspecified node"
	case 23:
		return "client node is out of range"
	case 24:
		return "same node address is already connected"
	case 25:
		return "no node addresses available for allocation"
	default:
		return fmt.Sprintf("unrecognized FINS/TCP error code %d", code)
	}
}

// tcpChannel implements FINS over TCP: the 16-byte framing envelope plus the
// node-address negotiation handshake (spec §4.5).
type tcpChannel struct {
	host string
	port int

	requestedLocal  byte
	requestedRemote byte

	mu         sync.Mutex
	state      channelState
	conn       net.Conn
	reader     *bufio.Reader
	localNode  byte
	remoteNode byte
}

func newTCPChannel(host string, port int, requestedLocal, requestedRemote byte) *tcpChannel {
	return &tcpChannel{host: host, port: port, requestedLocal: requestedLocal, requestedRemote: requestedRemote}
}

func (c *tcpChannel) open(ctx context.Context) (byte, byte, error) {
	c.mu.Lock()
	if c.state == stateReady {
		local, remote := c.localNode, c.remoteNode
		c.mu.Unlock()
		return local, remote, nil
	}
	c.state = stateConnecting
	c.mu.Unlock()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", c.host, c.port))
	if err != nil {
		c.mu.Lock()
		c.state = stateUninitialized
		c.mu.Unlock()
		return 0, 0, TransportError{Cause: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.mu.Unlock()

	local, remote, err := c.handshake(ctx)
	if err != nil {
		_ = conn.Close()
		c.mu.Lock()
		c.state = stateUninitialized
		c.conn = nil
		c.reader = nil
		c.mu.Unlock()
		return 0, 0, err
	}

	c.mu.Lock()
	c.localNode = local
	c.remoteNode = remote
	c.state = stateReady
	c.mu.Unlock()
	return local, remote, nil
}

// handshake sends a node-address request (code 0, 4-byte zero payload) and
// reads the reply (code 1); reply payload byte 3 is the PLC-assigned local
// node, byte 7 is the remote node (spec §4.5, §8 scenario 6).
func (c *tcpChannel) handshake(ctx context.Context) (byte, byte, error) {
	frame := encodeTCPFrame(tcpCmdNodeAddressRequest, 0, []byte{0, 0, 0, 0})
	if err := c.writeFrame(ctx, frame); err != nil {
		return 0, 0, err
	}

	cmd, errCode, payload, err := c.readFrame(ctx, 5*time.Second)
	if err != nil {
		return 0, 0, err
	}
	if cmd != tcpCmdNodeAddressReply {
		return 0, 0, ProtocolFramingError{Reason: fmt.Sprintf("expected node-address reply, got command %d", cmd)}
	}
	if errCode != 0 {
		return 0, 0, ProtocolFramingError{Reason: tcpErrorMessage(errCode)}
	}
	if len(payload) < 8 {
		return 0, 0, ProtocolFramingError{Reason: "node-address reply payload too short"}
	}
	local := payload[3]
	remote := payload[7]
	if local == 0 || local == 255 || remote == 0 || remote == 255 {
		return 0, 0, ProtocolFramingError{Reason: "node-address reply contains reserved node id"}
	}
	return local, remote, nil
}

func encodeTCPFrame(command uint32, errCode uint32, payload []byte) []byte {
	length := uint32(4 + 4 + len(payload))
	frame := make([]byte, 16+len(payload))
	copy(frame[0:4], tcpMagic)
	binary.BigEndian.PutUint32(frame[4:8], length)
	binary.BigEndian.PutUint32(frame[8:12], command)
	binary.BigEndian.PutUint32(frame[12:16], errCode)
	copy(frame[16:], payload)
	return frame
}

func (c *tcpChannel) writeFrame(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ChannelClosedError{}
	}
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(d)
	}
	if _, err := conn.Write(frame); err != nil {
		return TransportError{Cause: err}
	}
	return nil
}

// readFrame reads one 16-byte TCP header plus its (length-8)-byte body.
func (c *tcpChannel) readFrame(ctx context.Context, timeout time.Duration) (command uint32, errCode uint32, body []byte, err error) {
	c.mu.Lock()
	conn, reader := c.conn, c.reader
	c.mu.Unlock()
	if conn == nil || reader == nil {
		return 0, 0, nil, ChannelClosedError{}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	hdr := make([]byte, 16)
	if _, err := readFull(reader, hdr); err != nil {
		return 0, 0, nil, translateTCPReadError(err)
	}
	if string(hdr[0:4]) != tcpMagic {
		return 0, 0, nil, ProtocolFramingError{Reason: fmt.Sprintf("bad FINS/TCP magic: %q", hdr[0:4])}
	}
	length := binary.BigEndian.Uint32(hdr[4:8])
	if length < 8 {
		return 0, 0, nil, ProtocolFramingError{Reason: fmt.Sprintf("invalid FINS/TCP length: %d", length)}
	}
	command = binary.BigEndian.Uint32(hdr[8:12])
	errCode = binary.BigEndian.Uint32(hdr[12:16])

	bodyLen := int(length) - 8
	body = make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := readFull(reader, body); err != nil {
			return 0, 0, nil, translateTCPReadError(err)
		}
	}
	return command, errCode, body, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func translateTCPReadError(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return TimeoutError{Op: "tcp recv"}
	}
	if errors.Is(err, net.ErrClosed) {
		return ChannelClosedError{}
	}
	return TransportError{Cause: err}
}

func (c *tcpChannel) send(ctx context.Context, finsFrame []byte) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == stateClosed {
		return ChannelClosedError{}
	}
	if state != stateReady {
		return TransportError{Cause: errors.New("channel not open")}
	}
	frame := encodeTCPFrame(tcpCmdFinsFrame, 0, finsFrame)
	return c.writeFrame(ctx, frame)
}

func (c *tcpChannel) recv(ctx context.Context, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == stateClosed {
		return nil, ChannelClosedError{}
	}
	if state != stateReady {
		return nil, TransportError{Cause: errors.New("channel not open")}
	}

	cmd, errCode, body, err := c.readFrame(ctx, timeout)
	if err != nil {
		return nil, err
	}
	if cmd != tcpCmdFinsFrame {
		return nil, ProtocolFramingError{Reason: fmt.Sprintf("unexpected FINS/TCP command %d", cmd)}
	}
	if errCode != 0 {
		return nil, ProtocolFramingError{Reason: tcpErrorMessage(errCode)}
	}
	if len(body) < 1 || !looksLikeFinsHeader(body[0]) {
		return nil, ProtocolFramingError{Reason: "response body does not start with a FINS header byte"}
	}
	return body, nil
}

// purge drains and discards any bytes readable within timeout, absorbing
// read errors (spec §4.4/§9's purge semantics apply uniformly to both
// transports).
func (c *tcpChannel) purge(timeout time.Duration) {
	c.mu.Lock()
	conn, reader := c.conn, c.reader
	c.mu.Unlock()
	if conn == nil || reader == nil {
		return
	}
	deadline := time.Now().Add(timeout)
	scratch := make([]byte, 4096)
	for {
		if time.Now().After(deadline) {
			return
		}
		_ = conn.SetReadDeadline(deadline)
		if _, err := reader.Read(scratch); err != nil {
			return
		}
	}
}

func (c *tcpChannel) close() error {
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
	c.reader = nil
	if err != nil {
		return TransportError{Cause: err}
	}
	return nil
}
