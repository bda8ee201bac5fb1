package fins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sessionStats is a read-only snapshot of pipeline activity (supplemented
// feature: connection health without a client-owned keepalive, grounded on
// yatesdr-warlogix/plcman's ManagedPLC/PollStats).
type sessionStats struct {
	RequestCount  int
	BytesSent     int
	BytesReceived int
	LastError     error
}

// session owns the channel, classifies the controller, and exposes typed
// read/write operations validated against the capability table (spec §4.7).
type session struct {
	pipeline *pipeline
	timeout  time.Duration
	log      *zap.Logger

	mu          sync.Mutex
	initialized bool
	plcType     PlcType
	model       string
	version     string
	caps        capabilities

	statsMu sync.Mutex
	stats   sessionStats

	wordOrderSwap bool // diagnostic escape hatch, see SPEC_FULL.md §4
}

func newSession(p *pipeline, timeout time.Duration, log *zap.Logger) *session {
	if log == nil {
		log = zap.NewNop()
	}
	return &session{pipeline: p, timeout: timeout, log: log}
}

// SetWordOrder records a diagnostic word-order flag. The tag read/write
// paths do not consult it: 32-bit and 64-bit values are always laid out
// high-word-first (spec §4.8), whatever the flag says.
func (s *session) SetWordOrder(swapped bool) {
	s.mu.Lock()
	s.wordOrderSwap = swapped
	s.mu.Unlock()
}

// Stats returns a snapshot of cumulative pipeline activity.
func (s *session) Stats() sessionStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *session) recordResult(res pipelineResult, err error) {
	s.statsMu.Lock()
	s.stats.RequestCount++
	s.stats.BytesSent += res.BytesSent
	s.stats.BytesReceived += res.BytesReceived
	if err != nil {
		s.stats.LastError = err
	}
	s.statsMu.Unlock()
}

// Initialize runs once: opens the channel, reads controller data, and
// classifies the PLC type (spec §4.7). Concurrent callers block on the same
// attempt; a failed attempt may be retried by a later call.
func (s *session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	res, err := s.pipeline.execute(ctx, cmdReadCPUUnitData, func(local, remote byte) []byte {
		return buildReadCPUUnitData()
	}, s.timeout)
	s.recordResult(res, err)
	if err != nil {
		return err
	}

	data, err := extractControllerData(res.Response.payload)
	if err != nil {
		return err
	}

	s.model = data.Model
	s.version = data.Version
	s.plcType = classifyModel(data.Model)
	s.caps = capabilitiesFor(s.plcType)
	s.initialized = true

	s.log.Info("session initialized", zap.String("model", data.Model), zap.String("version", data.Version), zap.String("plc_type", s.plcType.String()))
	return nil
}

func (s *session) requireInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NotInitializedError{}
	}
	return nil
}

func (s *session) snapshot() (PlcType, string, string, capabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plcType, s.model, s.version, s.caps
}

// PlcType returns the detected controller family.
func (s *session) PlcType() PlcType {
	t, _, _, _ := s.snapshot()
	return t
}

// ControllerModel returns the raw model string read at Initialize.
func (s *session) ControllerModel() string {
	_, m, _, _ := s.snapshot()
	return m
}

// ControllerVersion returns the raw version string read at Initialize.
func (s *session) ControllerVersion() string {
	_, _, v, _ := s.snapshot()
	return v
}

// ReadWords reads count words from area starting at address, validated
// against the capability table (spec §4.7).
func (s *session) ReadWords(ctx context.Context, area MemoryArea, address uint16, count int) ([]int16, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	_, _, _, caps := s.snapshot()
	if count < 1 {
		return nil, AddressInvalidError{Reason: "length must be >= 1"}
	}
	if count > caps.MaxReadWords {
		return nil, RangeInvalidError{Reason: fmt.Sprintf("read length %d exceeds model maximum %d", count, caps.MaxReadWords)}
	}
	if err := s.checkAreaRange(area, caps, int(address), count); err != nil {
		return nil, err
	}

	res, err := s.pipeline.execute(ctx, cmdMemoryAreaRead, func(local, remote byte) []byte {
		return buildReadWords(area.wordCode(), address, uint16(count))
	}, s.timeout)
	s.recordResult(res, err)
	if err != nil {
		return nil, err
	}
	return extractWords(res.Response.payload, count)
}

// WriteWords writes values to area starting at address, validated against
// the capability table.
func (s *session) WriteWords(ctx context.Context, area MemoryArea, address uint16, values []uint16) error {
	if err := s.requireInitialized(); err != nil {
		return err
	}
	_, _, _, caps := s.snapshot()
	if len(values) < 1 || len(values) > caps.MaxWriteWords {
		return RangeInvalidError{Reason: fmt.Sprintf("write length %d out of range [1,%d]", len(values), caps.MaxWriteWords)}
	}
	if err := s.checkAreaRange(area, caps, int(address), len(values)); err != nil {
		return err
	}

	res, err := s.pipeline.execute(ctx, cmdMemoryAreaWrite, func(local, remote byte) []byte {
		return buildWriteWords(area.wordCode(), address, values)
	}, s.timeout)
	s.recordResult(res, err)
	return err
}

// ReadBits reads count consecutive bits starting at (address, startBit).
func (s *session) ReadBits(ctx context.Context, area MemoryArea, address uint16, startBit int, count int) ([]bool, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	if err := checkBitRange(startBit, count); err != nil {
		return nil, err
	}
	_, _, _, caps := s.snapshot()
	if !caps.BitAddressable {
		return nil, UnsupportedError{Op: "ReadBits", Model: s.PlcType()}
	}
	if err := s.checkAreaRange(area, caps, int(address), 1); err != nil {
		return nil, err
	}

	res, err := s.pipeline.execute(ctx, cmdMemoryAreaRead, func(local, remote byte) []byte {
		return buildReadBits(area.bitCode(), address, byte(startBit), uint16(count))
	}, s.timeout)
	s.recordResult(res, err)
	if err != nil {
		return nil, err
	}
	return extractBits(res.Response.payload, count)
}

// WriteBits writes values starting at (address, startBit).
func (s *session) WriteBits(ctx context.Context, area MemoryArea, address uint16, startBit int, values []bool) error {
	if err := s.requireInitialized(); err != nil {
		return err
	}
	if err := checkBitRange(startBit, len(values)); err != nil {
		return err
	}
	_, _, _, caps := s.snapshot()
	if !caps.BitAddressable {
		return UnsupportedError{Op: "WriteBits", Model: s.PlcType()}
	}
	if err := s.checkAreaRange(area, caps, int(address), 1); err != nil {
		return err
	}

	res, err := s.pipeline.execute(ctx, cmdMemoryAreaWrite, func(local, remote byte) []byte {
		return buildWriteBits(area.bitCode(), address, byte(startBit), values)
	}, s.timeout)
	s.recordResult(res, err)
	return err
}

// checkBitRange enforces spec §4.7's ReadBits/WriteBits checks:
// startBit<=15, len>=1, startBit+len<=16.
func checkBitRange(startBit, count int) error {
	if startBit < 0 || startBit > 15 {
		return AddressInvalidError{Reason: "bit index must be 0-15"}
	}
	if count < 1 {
		return AddressInvalidError{Reason: "length must be >= 1"}
	}
	if startBit+count > 16 {
		return AddressInvalidError{Reason: "startBit+length exceeds 16"}
	}
	return nil
}

// checkAreaRange enforces area support (auxiliary only on certain models)
// and the per-model address ceiling.
func (s *session) checkAreaRange(area MemoryArea, caps capabilities, address, count int) error {
	if area == AreaAuxiliary && !caps.AuxSupported {
		return UnsupportedError{Op: "auxiliary area access", Model: s.PlcType()}
	}
	ceiling := caps.ceilingFor(area)
	if ceiling > 0 && address+count-1 >= ceiling {
		return RangeInvalidError{Reason: fmt.Sprintf("address range [%d,%d] exceeds %s ceiling %d", address, address+count-1, area, ceiling)}
	}
	return nil
}

// ReadClock reads the PLC's real-time clock.
func (s *session) ReadClock(ctx context.Context) (clockResult, error) {
	if err := s.requireInitialized(); err != nil {
		return clockResult{}, err
	}
	res, err := s.pipeline.execute(ctx, cmdReadClock, func(local, remote byte) []byte {
		return buildReadClock()
	}, s.timeout)
	s.recordResult(res, err)
	if err != nil {
		return clockResult{}, err
	}
	return extractClock(res.Response.payload)
}

// clockBounds are the accepted range for WriteClock, spec §4.7/§8.
var (
	clockMin = time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)
	clockMax = time.Date(2069, 12, 31, 23, 59, 59, 0, time.UTC)
)

// WriteClock sets the PLC's real-time clock. If dow is negative, the
// day-of-week is derived from t.
func (s *session) WriteClock(ctx context.Context, t time.Time, dow int) error {
	if err := s.requireInitialized(); err != nil {
		return err
	}
	if t.Before(clockMin) || t.After(clockMax) {
		return AddressInvalidError{Reason: "clock value outside [1998-01-01, 2069-12-31]"}
	}
	if dow < 0 {
		dow = int(t.Weekday())
	}
	if dow < 0 || dow > 6 {
		return AddressInvalidError{Reason: "day-of-week must be 0-6"}
	}

	res, err := s.pipeline.execute(ctx, cmdWriteClock, func(local, remote byte) []byte {
		payload, _ := buildWriteClock(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), dow)
		return payload
	}, s.timeout)
	s.recordResult(res, err)
	return err
}

// ReadCycleTime reads scan-time statistics; rejected without wire traffic on
// models the capability table marks unsupported (spec §4.7).
func (s *session) ReadCycleTime(ctx context.Context) (cycleTimeResult, error) {
	if err := s.requireInitialized(); err != nil {
		return cycleTimeResult{}, err
	}
	_, _, _, caps := s.snapshot()
	if !caps.CycleTimeOK {
		return cycleTimeResult{}, UnsupportedError{Op: "ReadCycleTime", Model: s.PlcType()}
	}

	res, err := s.pipeline.execute(ctx, cmdReadCycleTime, func(local, remote byte) []byte {
		return buildReadCycleTime()
	}, s.timeout)
	s.recordResult(res, err)
	if err != nil {
		return cycleTimeResult{}, err
	}
	return extractCycleTime(res.Response.payload)
}

func (s *session) close() error {
	return s.pipeline.close()
}
