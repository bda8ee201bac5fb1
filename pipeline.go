package fins

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// pipelineResult is the pipeline's return value for one exchange (spec
// §4.6): bytes sent and received, wall-clock duration, and the parsed
// response. Packet counts are not recorded.
type pipelineResult struct {
	BytesSent     int
	BytesReceived int
	Duration      time.Duration
	Response      response
}

// channelFactory builds a fresh channel; the pipeline calls it whenever a
// retry requires a full teardown-and-reopen (spec §4.6, §5).
type channelFactory func() channel

// pipeline serializes every FINS exchange over one channel through a
// weighted semaphore of weight 1 (spec §4.6, §5): at most one request is
// ever in flight. Service-id is a wrapping byte counter owned here.
type pipeline struct {
	sem     *semaphore.Weighted
	factory channelFactory
	log     *zap.Logger

	mu      sync.Mutex
	ch      channel
	local   byte
	remote  byte
	sid     byte
	retries int
}

func newPipeline(factory channelFactory, retries int, log *zap.Logger) *pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &pipeline{
		sem:     semaphore.NewWeighted(1),
		factory: factory,
		log:     log,
		ch:      factory(),
		retries: retries,
	}
}

// ensureOpen opens the current channel if it isn't already, recording the
// negotiated node-ids.
func (p *pipeline) ensureOpen(ctx context.Context) error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	local, remote, err := ch.open(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.local, p.remote = local, remote
	p.mu.Unlock()
	return nil
}

func (p *pipeline) nextServiceID() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	sid := p.sid
	p.sid++
	return sid
}

// nodeIDs returns the pipeline's currently negotiated (local, remote) FINS
// node-ids, which for TCP may differ from the caller-configured values after
// the handshake (spec §4.5).
func (p *pipeline) nodeIDs() (byte, byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.local, p.remote
}

// rebuild tears down the current channel and replaces it with a fresh one
// from the factory, per spec §4.6's "the channel is destroyed and
// re-initialized" retry step.
func (p *pipeline) rebuild(ctx context.Context) error {
	p.mu.Lock()
	old := p.ch
	p.ch = p.factory()
	p.mu.Unlock()

	if old != nil {
		_ = old.close()
	}
	return p.ensureOpen(ctx)
}

// execute runs one FINS exchange: build via buildPayload, send, receive,
// validate. On a transport-class failure it rebuilds the channel and retries
// up to p.retries additional times; on a protocol-class failure (a
// FinsError/ProtocolEchoError/ProtocolFramingError/NetworkRelayError) it
// does not retry, per spec
// §4.6/§7's retry policy. A service-id echo mismatch triggers a purge before
// the error escapes.
func (p *pipeline) execute(ctx context.Context, fn uint16, buildPayload func(local, remote byte) []byte, timeout time.Duration) (pipelineResult, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return pipelineResult{}, err
	}
	defer p.sem.Release(1)

	var lastErr error
	attempts := 1 + p.retries
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := p.executeOnce(ctx, fn, buildPayload, timeout)
		if err == nil {
			p.log.Info("fins request completed",
				zap.Uint16("command", fn),
				zap.Duration("duration", res.Duration),
				zap.Int("bytes_sent", res.BytesSent),
				zap.Int("bytes_received", res.BytesReceived))
			return res, nil
		}
		lastErr = err

		if !isRetryable(err) {
			p.log.Error("fins request failed (protocol error, no retry)", zap.Uint16("command", fn), zap.Error(err))
			return pipelineResult{}, err
		}

		p.log.Error("fins request failed, rebuilding channel", zap.Uint16("command", fn), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < attempts-1 {
			if rebuildErr := p.rebuild(ctx); rebuildErr != nil {
				lastErr = rebuildErr
				continue
			}
		}
	}
	return pipelineResult{}, lastErr
}

func (p *pipeline) executeOnce(ctx context.Context, fn uint16, buildPayload func(local, remote byte) []byte, timeout time.Duration) (pipelineResult, error) {
	start := time.Now()

	if err := p.ensureOpen(ctx); err != nil {
		return pipelineResult{}, err
	}
	local, remote := p.nodeIDs()

	sid := p.nextServiceID()
	h := newRequestHeader(local, remote, sid)
	req := request{header: h, command: fn, payload: buildPayload(local, remote)}
	frame := encodeRequest(req)

	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := ch.send(callCtx, frame); err != nil {
		return pipelineResult{}, err
	}
	raw, err := ch.recv(callCtx, timeout)
	if err != nil {
		return pipelineResult{}, err
	}

	resp, err := decodeResponse(raw)
	if err != nil {
		return pipelineResult{}, err
	}
	purgeNeeded, err := validateResponse(req, resp)
	if purgeNeeded {
		ch.purge(timeout)
	}
	if err != nil {
		return pipelineResult{}, err
	}

	return pipelineResult{
		BytesSent:     len(frame),
		BytesReceived: len(raw),
		Duration:      time.Since(start),
		Response:      resp,
	}, nil
}

// isRetryable reports whether err is a transport-class failure that the
// pipeline should retry with a fresh channel, as opposed to a protocol-class
// failure that indicates the PLC understood and rejected the request (spec
// §4.6, §7).
func isRetryable(err error) bool {
	switch err.(type) {
	case FinsError, ProtocolEchoError, ProtocolFramingError, NetworkRelayError:
		return false
	default:
		return true
	}
}

func (p *pipeline) close() error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()
	if ch == nil {
		return nil
	}
	return ch.close()
}
