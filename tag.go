package fins

import (
	"strings"
	"sync"
)

// tagEvent is what the aggregate broadcast stream carries: an untyped
// snapshot of a tag whose cached value changed (spec §4.9, §4.10 observe_all).
type tagEvent struct {
	Name    string
	Address string
	Kind    TagKind
	Value   any
}

// broadcaster is a single-value-retaining multicast: new subscribers
// immediately receive the latest published value, and slow subscribers have
// their oldest buffered value dropped rather than blocking the publisher
// (spec §4.9, §5).
type broadcaster[T any] struct {
	mu      sync.Mutex
	latest  T
	hasLast bool
	subs    map[int]chan T
	nextID  int
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]chan T)}
}

// subscribe returns a receive channel of capacity cap and an unsubscribe
// func. If a value has already been published, it is sent immediately.
func (b *broadcaster[T]) subscribe(capacity int) (<-chan T, func()) {
	if capacity < 1 {
		capacity = 1
	}
	b.mu.Lock()
	ch := make(chan T, capacity)
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.hasLast {
		ch <- b.latest
	}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, unsub
}

// publish fans v out to every subscriber, dropping the oldest buffered value
// for any subscriber whose channel is full rather than blocking (spec §5).
func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = v
	b.hasLast = true
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// tagEntry is one registered tag (spec §3, §4.9): its address, kind, cached
// value, and per-tag broadcast handle.
type tagEntry struct {
	Name    string
	Address string
	Kind    TagKind
	StrLen  int

	mu        sync.RWMutex
	hasValue  bool
	value     any
	broadcast *broadcaster[Option[any]]
}

func newTagEntry(name, address string, kind TagKind, strLen int) *tagEntry {
	return &tagEntry{
		Name:      name,
		Address:   address,
		Kind:      kind,
		StrLen:    strLen,
		broadcast: newBroadcaster[Option[any]](),
	}
}

// Option is a present-or-absent value, used where spec §4.10 calls for
// Option<T> semantics (observe/value on a tag that hasn't been polled yet,
// or a name that was never registered).
type Option[T any] struct {
	Value T
	Valid bool
}

func some[T any](v T) Option[T] { return Option[T]{Value: v, Valid: true} }

// cachedValue returns the tag's current value and whether one has been set.
func (t *tagEntry) cachedValue() (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value, t.hasValue
}

// setIfChanged updates the cache and publishes to the tag's broadcaster (and
// returns true) only if v differs from the current cached value, per spec
// §4.9's "published only when the new value differs from the cache" and
// §8's "every published tag event has new_value != cached_value_before_event".
func (t *tagEntry) setIfChanged(v any) bool {
	t.mu.Lock()
	changed := !t.hasValue || t.value != v
	if changed {
		t.value = v
		t.hasValue = true
	}
	t.mu.Unlock()
	if changed {
		t.broadcast.publish(some(v))
	}
	return changed
}

// tagTable is the case-insensitive registration table (spec §3, §4.10).
type tagTable struct {
	mu   sync.RWMutex
	tags map[string]*tagEntry
}

func newTagTable() *tagTable {
	return &tagTable{tags: make(map[string]*tagEntry)}
}

func tagKey(name string) string { return strings.ToLower(name) }

// upsert inserts or idempotently replaces the tag named name. Reusing a name
// with a different kind or address replaces the prior entry and its
// broadcaster (subscribers of the old entry are closed), per spec §4.10.
func (t *tagTable) upsert(name, address string, kind TagKind, strLen int) *tagEntry {
	key := tagKey(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.tags[key]; ok {
		if existing.Address == address && existing.Kind == kind && existing.StrLen == strLen {
			return existing
		}
		existing.broadcast.closeAll()
	}
	entry := newTagEntry(name, address, kind, strLen)
	t.tags[key] = entry
	return entry
}

func (t *tagTable) get(name string) (*tagEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.tags[tagKey(name)]
	return e, ok
}

// snapshot returns every registered tag for one poll pass, in Go map
// iteration order; that order is not fixed and may differ between passes.
func (t *tagTable) snapshot() []*tagEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*tagEntry, 0, len(t.tags))
	for _, e := range t.tags {
		out = append(out, e)
	}
	return out
}
