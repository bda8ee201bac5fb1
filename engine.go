package fins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// engine owns the poll loop and the error/observe-all broadcast streams
// (spec §4.9). Grounded on yatesdr-warlogix/plcman's PLCWorker.pollLoop and
// Manager.sendChanges, collapsed from "one worker per PLC" to "one loop per
// session" since a Client owns exactly one PLC.
type engine struct {
	sess         *session
	table        *tagTable
	interval     time.Duration
	log          *zap.Logger
	aggregate    *broadcaster[tagEvent]
	errs         *broadcaster[error]
	wg           sync.WaitGroup
	writeWG      sync.WaitGroup
	cancel       context.CancelFunc
	ctx          context.Context
}

func newEngine(sess *session, table *tagTable, interval time.Duration, log *zap.Logger) *engine {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &engine{
		sess:      sess,
		table:     table,
		interval:  interval,
		log:       log,
		aggregate: newBroadcaster[tagEvent](),
		errs:      newBroadcaster[error](),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// start launches the single long-running poll task (spec §4.9).
func (e *engine) start() {
	e.wg.Add(1)
	go e.pollLoop()
}

func (e *engine) publishError(err error) {
	e.errs.publish(err)
}

// pollLoop is the engine's single background task (spec §4.9, §5): retry
// initialization once per tick until it succeeds, then read every tag once
// per pass, publishing changes, then sleep until the next tick or
// cancellation.
func (e *engine) pollLoop() {
	defer e.wg.Done()
	for {
		if e.ctx.Err() != nil {
			return
		}

		if err := e.sess.requireInitialized(); err != nil {
			if initErr := e.sess.Initialize(e.ctx); initErr != nil {
				e.publishError(fmt.Errorf("fins: initialize: %w", initErr))
			}
		}

		if e.sess.requireInitialized() == nil {
			e.pollOnce()
		}

		select {
		case <-e.ctx.Done():
			return
		case <-time.After(e.interval):
		}
	}
}

// pollOnce reads every registered tag once, publishing changes to the tag's
// own stream and the aggregate stream (spec §4.9 step 2-3).
func (e *engine) pollOnce() {
	for _, entry := range e.table.snapshot() {
		if e.ctx.Err() != nil {
			return
		}
		e.pollTag(entry)
	}
}

func (e *engine) pollTag(entry *tagEntry) {
	addr, err := parseAddress(entry.Address)
	if err != nil {
		e.publishError(fmt.Errorf("fins: tag %q: %w", entry.Name, err))
		return
	}

	v, err := readTagValue(e.ctx, e.sess, addr, entry.Kind, entry.StrLen)
	if err != nil {
		switch err.(type) {
		case ConfigInvalidError, NotInitializedError, AddressInvalidError, RangeInvalidError,
			TransportError, TimeoutError, ChannelClosedError, ProtocolFramingError,
			ProtocolEchoError, NetworkRelayError, FinsError, TypeMismatchError, UnsupportedError:
			e.publishError(fmt.Errorf("fins: tag %q: %w", entry.Name, err))
		default:
			e.publishError(fmt.Errorf("fins: tag %q: unexpected error: %w", entry.Name, err))
		}
		return
	}

	if entry.setIfChanged(v) {
		e.aggregate.publish(tagEvent{Name: entry.Name, Address: entry.Address, Kind: entry.Kind, Value: v})
	}
}

// scheduleWrite is the fire-and-forget write path (spec §4.9, §4.10): the
// engine parses the address, encodes v, and issues the write on a background
// goroutine so the caller never blocks.
func (e *engine) scheduleWrite(name, address string, kind TagKind, strLen int, v any) {
	e.writeWG.Add(1)
	go func() {
		defer e.writeWG.Done()
		addr, err := parseAddress(address)
		if err != nil {
			e.publishError(fmt.Errorf("fins: write %q: %w", name, err))
			return
		}
		if err := writeTagValue(e.ctx, e.sess, addr, kind, strLen, v); err != nil {
			e.publishError(fmt.Errorf("fins: write %q: %w", name, err))
		}
	}()
}

// stop cancels the poll loop, waits (bounded) for it and any in-flight
// writes to finish, and closes both broadcast streams (spec §4.10 dispose,
// §9 lifecycle).
func (e *engine) stop() {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		e.writeWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.log.Warn("engine stop timed out waiting for poll loop and writes")
	}

	e.aggregate.closeAll()
	e.errs.closeAll()
}
