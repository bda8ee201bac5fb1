package fins

import (
	"context"
	"time"
)

// TransportKind selects the FINS wire transport.
type TransportKind int

const (
	TransportTCP TransportKind = iota
	TransportUDP
)

func (t TransportKind) String() string {
	if t == TransportTCP {
		return "TCP"
	}
	return "UDP"
}

// channelState tracks the lifecycle of a channel's underlying socket,
// resolving spec §9's note about the TCP receive path racing a nulled
// client field: every channel method checks state before touching the
// socket, and transitions are explicit.
type channelState int

const (
	stateUninitialized channelState = iota
	stateConnecting
	stateReady
	stateClosed
)

// channel abstracts the wire-level send/receive/purge operations so the
// request pipeline can drive either transport identically (spec §4.4, §4.5).
type channel interface {
	// open establishes the underlying socket (and, for TCP, negotiates
	// node-ids). It returns the negotiated (local, remote) node-ids; a UDP
	// channel returns the ids it was constructed with, unchanged.
	open(ctx context.Context) (localNode, remoteNode byte, err error)
	// send writes a single FINS request frame.
	send(ctx context.Context, frame []byte) error
	// recv reads a single FINS response frame, blocking up to timeout.
	recv(ctx context.Context, timeout time.Duration) ([]byte, error)
	// purge drains any datagrams/bytes readable within timeout, discarding
	// them and absorbing read errors (spec §4.4, §9).
	purge(timeout time.Duration)
	// close tears down the socket.
	close() error
}

const finsHeaderStartMin = 0xC0
const finsHeaderStartMax = 0xC1

func looksLikeFinsHeader(b byte) bool {
	return b == finsHeaderStartMin || b == finsHeaderStartMax
}
