package fins

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config is the constructor's parameter block (spec §6). Zero values for
// Port, Timeout, Retries, and PollInterval fall back to the documented
// defaults.
type Config struct {
	LocalNodeID  byte
	RemoteNodeID byte
	Transport    TransportKind
	Host         string
	Port         int
	Timeout      time.Duration
	Retries      int
	PollInterval time.Duration
	Logger       *zap.Logger
}

const (
	defaultPort         = 9600
	defaultTimeout      = 2 * time.Second
	defaultRetries      = 1
	defaultPollInterval = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Retries == 0 {
		c.Retries = defaultRetries
	}
	return c
}

func (c Config) validate() error {
	if c.LocalNodeID < 1 || c.LocalNodeID > 254 {
		return ConfigInvalidError{Field: "LocalNodeID", Reason: "must be 1-254"}
	}
	if c.RemoteNodeID < 1 || c.RemoteNodeID > 254 {
		return ConfigInvalidError{Field: "RemoteNodeID", Reason: "must be 1-254"}
	}
	if c.LocalNodeID == c.RemoteNodeID {
		return ConfigInvalidError{Field: "RemoteNodeID", Reason: "must differ from LocalNodeID"}
	}
	if c.Host == "" {
		return ConfigInvalidError{Field: "Host", Reason: "must not be empty"}
	}
	if c.Retries < 0 {
		return ConfigInvalidError{Field: "Retries", Reason: "must be >= 0"}
	}
	return nil
}

// Client is the public surface for the FINS client + reactive tag layer
// (spec §4.10). Construct with NewClient; free generic functions
// (RegisterTag, Observe, Value, Write) operate on it, since Go does not
// allow type parameters on methods.
type Client struct {
	cfg    Config
	sess   *session
	table  *tagTable
	engine *engine
	log    *zap.Logger
}

// NewClient constructs a Client and starts its poll loop. Initialize is not
// performed synchronously; the poll loop attempts it on its first tick and
// retries once per tick until it succeeds (spec §4.9).
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	factory := func() channel {
		switch cfg.Transport {
		case TransportTCP:
			return newTCPChannel(cfg.Host, cfg.Port, cfg.LocalNodeID, cfg.RemoteNodeID)
		default:
			return newUDPChannel(cfg.Host, cfg.Port, cfg.LocalNodeID, cfg.RemoteNodeID)
		}
	}

	pipe := newPipeline(factory, cfg.Retries, log)
	sess := newSession(pipe, cfg.Timeout, log)
	table := newTagTable()
	eng := newEngine(sess, table, cfg.PollInterval, log)
	eng.start()

	return &Client{cfg: cfg, sess: sess, table: table, engine: eng, log: log}, nil
}

// defaultBroadcastCapacity is the per-subscriber buffer for tag and
// aggregate streams (spec §5's bounded, drop-oldest back-pressure).
const defaultBroadcastCapacity = 16

// kindOf maps a Go type parameter to its TagKind, the bridge between
// generics-on-free-functions and the closed tagged union (spec §9).
func kindOf[T any]() (TagKind, bool) {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool, true
	case byte:
		return KindByte, true
	case int16:
		return KindInt16, true
	case uint16:
		return KindUint16, true
	case int32:
		return KindInt32, true
	case uint32:
		return KindUint32, true
	case float32:
		return KindFloat32, true
	case float64:
		return KindFloat64, true
	case string:
		return KindString, true
	default:
		return 0, false
	}
}

// RegisterTag idempotently registers a tag of type T at address under name;
// reusing name with a different type or address replaces the prior entry
// (spec §4.10). BCD kinds have no single Go type (int16 backs both signed
// BCD-16 and plain int16) so they're registered via RegisterBCDTag instead.
func RegisterTag[T any](c *Client, address, name string) error {
	kind, ok := kindOf[T]()
	if !ok {
		return ConfigInvalidError{Field: "T", Reason: "unsupported tag type"}
	}
	if _, err := parseAddress(address); err != nil {
		return err
	}
	c.table.upsert(name, address, kind, 0)
	return nil
}

// RegisterStringTag registers a string tag with an explicit maximum length
// (default 16 per spec §4.8 when length is 0).
func RegisterStringTag(c *Client, address, name string, length int) error {
	if _, err := parseAddress(address); err != nil {
		return err
	}
	c.table.upsert(name, address, KindString, length)
	return nil
}

// RegisterBCDTag registers one of the four BCD kinds, which don't map onto
// a plain Go numeric type the way kindOf does.
func RegisterBCDTag(c *Client, address, name string, kind TagKind) error {
	switch kind {
	case KindBCD16, KindUBCD16, KindBCD32, KindUBCD32:
	default:
		return ConfigInvalidError{Field: "kind", Reason: "not a BCD kind"}
	}
	if _, err := parseAddress(address); err != nil {
		return err
	}
	c.table.upsert(name, address, kind, 0)
	return nil
}

// Observe returns a stream of Option[T] for name, immediately re-emitting
// the latest cached value to the new subscriber (spec §4.10). The channel
// and unsubscribe func are both nil-safe to ignore if name isn't found.
func Observe[T any](c *Client, name string) (<-chan Option[T], func()) {
	entry, ok := c.table.get(name)
	if !ok {
		ch := make(chan Option[T])
		close(ch)
		return ch, func() {}
	}

	raw, unsub := entry.broadcast.subscribe(defaultBroadcastCapacity)
	out := make(chan Option[T], defaultBroadcastCapacity)
	go func() {
		defer close(out)
		for opt := range raw {
			if !opt.Valid {
				out <- Option[T]{}
				continue
			}
			if v, ok := opt.Value.(T); ok {
				out <- Option[T]{Value: v, Valid: true}
			}
		}
	}()
	return out, unsub
}

// ObserveAll returns a stream of tag descriptors for every change across
// every registered tag (spec §4.10 observe_all).
func ObserveAll(c *Client) (<-chan tagEvent, func()) {
	return c.engine.aggregate.subscribe(defaultBroadcastCapacity)
}

// Errors returns the client's error stream (spec §4.10).
func Errors(c *Client) (<-chan error, func()) {
	return c.engine.errs.subscribe(defaultBroadcastCapacity)
}

// Value synchronously returns the cached value for name, or a zero
// Option if the tag is unknown or its cached type doesn't match T
// (spec §4.10).
func Value[T any](c *Client, name string) Option[T] {
	entry, ok := c.table.get(name)
	if !ok {
		return Option[T]{}
	}
	v, has := entry.cachedValue()
	if !has {
		return Option[T]{}
	}
	if t, ok := v.(T); ok {
		return Option[T]{Value: t, Valid: true}
	}
	return Option[T]{}
}

// Write is a fire-and-forget write: it returns immediately and reports
// failures via Errors (spec §4.10).
func Write[T any](c *Client, name string, value T) {
	entry, ok := c.table.get(name)
	if !ok {
		c.engine.publishError(ConfigInvalidError{Field: "name", Reason: "unknown tag: " + name})
		return
	}
	c.engine.scheduleWrite(name, entry.Address, entry.Kind, entry.StrLen, value)
}

// ReadClock is an async pass-through to the session's clock read (spec §4.10).
func (c *Client) ReadClock(ctx context.Context) (clockResult, error) {
	return c.sess.ReadClock(ctx)
}

// WriteClock is an async pass-through to the session's clock write. If dow
// is negative, it's derived from t.
func (c *Client) WriteClock(ctx context.Context, t time.Time, dow int) error {
	return c.sess.WriteClock(ctx, t, dow)
}

// ReadCycleTime is an async pass-through to the session's cycle-time read.
func (c *Client) ReadCycleTime(ctx context.Context) (cycleTimeResult, error) {
	return c.sess.ReadCycleTime(ctx)
}

// PlcType returns the detected controller family (spec §4.10).
func (c *Client) PlcType() PlcType { return c.sess.PlcType() }

// ControllerModel returns the raw model string read at Initialize.
func (c *Client) ControllerModel() string { return c.sess.ControllerModel() }

// ControllerVersion returns the raw version string read at Initialize.
func (c *Client) ControllerVersion() string { return c.sess.ControllerVersion() }

// Stats returns a snapshot of cumulative pipeline activity.
func (c *Client) Stats() sessionStats { return c.sess.Stats() }

// SetWordOrder records the session's diagnostic word-order flag (see
// SPEC_FULL.md §4). Tag reads and writes do not consult it, so word layout
// stays high-word-first.
func (c *Client) SetWordOrder(swapped bool) { c.sess.SetWordOrder(swapped) }

// Dispose cancels the poll task, joins it within ~2s, closes the broadcast
// streams, and closes the channel (spec §4.10, §9).
func (c *Client) Dispose() error {
	c.engine.stop()
	for _, entry := range c.table.snapshot() {
		entry.broadcast.closeAll()
	}
	return c.sess.close()
}
