package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/errors"
)

var errClosed = errors.Closed(errors.PhaseRegister, "registry")

func errExhausted(limit int) error {
	return errors.Exhausted(limit)
}

// Registry maps handles to the sinks of live sessions.
// Safe for concurrent use; lookups only take a read lock.
type Registry struct {
	slots     *slab
	logger    *zap.Logger
	observers []observerEntry
	nextObsID uint64
	obsMu     sync.RWMutex
}

type observerEntry struct {
	o  Observer
	id uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLimit caps the number of concurrently live sessions.
func WithLimit(n int) Option {
	return func(r *Registry) {
		r.slots = newSlab(n)
	}
}

// WithLogger overrides the package logger for this registry.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		slots: newSlab(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = New()

// Default returns the process-wide registry used by the native entry points.
func Default() *Registry {
	return defaultRegistry
}

// Register stores sink and returns the handle to hand to the encoder.
// The handle stays valid until the session's close callback returns or
// Unregister is called.
func (r *Registry) Register(sink encbridge.Sink, opts ...SessionOption) (encbridge.Handle, error) {
	if sink == nil {
		return 0, errors.InvalidInput(errors.PhaseRegister, "nil sink")
	}

	sess, err := r.slots.create(func(h encbridge.Handle) *session {
		info := SessionInfo{
			Handle:  h,
			ID:      uuid.NewString(),
			Created: time.Now(),
		}
		for _, opt := range opts {
			opt(&info)
		}
		return &session{reg: r, sink: sink, info: info}
	})
	if err != nil {
		return 0, err
	}

	r.log().Debug("session registered",
		zap.Uint32("handle", uint32(sess.info.Handle)),
		zap.String("session", sess.info.ID),
		zap.String("label", sess.info.Label))

	r.notify(Event{Type: EventRegistered, Session: sess.info})
	return sess.info.Handle, nil
}

// Lookup returns the sink for a live handle. Closing the returned sink
// releases the handle once the underlying Close has returned.
func (r *Registry) Lookup(h encbridge.Handle) (encbridge.Sink, bool) {
	sess, ok := r.slots.get(h)
	if !ok {
		return nil, false
	}
	return sess, true
}

// Info returns the metadata of a live session.
func (r *Registry) Info(h encbridge.Handle) (SessionInfo, bool) {
	sess, ok := r.slots.get(h)
	if !ok {
		return SessionInfo{}, false
	}
	return sess.info, true
}

// Unregister releases a handle without a close callback and returns the
// sink that was registered for it. The sink is not closed or dropped.
func (r *Registry) Unregister(h encbridge.Handle) (encbridge.Sink, bool) {
	sess, ok := r.slots.remove(h)
	if !ok {
		return nil, false
	}

	r.log().Debug("session unregistered",
		zap.Uint32("handle", uint32(h)),
		zap.String("session", sess.info.ID))

	r.notify(Event{Type: EventUnregistered, Session: sess.info})
	return sess.sink, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.slots.len()
}

// Each calls fn for every live session until fn returns false.
func (r *Registry) Each(fn func(SessionInfo) bool) {
	r.slots.each(func(s *session) bool {
		return fn(s.info)
	})
}

// Subscribe adds an observer and returns a function that removes it.
func (r *Registry) Subscribe(o Observer) (unsubscribe func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()

	r.nextObsID++
	id := r.nextObsID
	r.observers = append(r.observers, observerEntry{o: o, id: id})

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		for i, e := range r.observers {
			if e.id == id {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Close abandons every live session and stops accepting registrations.
// Sinks implementing Dropper are dropped; none are closed.
func (r *Registry) Close() error {
	for _, sess := range r.slots.close() {
		if d, ok := sess.sink.(Dropper); ok {
			d.Drop()
		}
		r.log().Warn("session abandoned",
			zap.Uint32("handle", uint32(sess.info.Handle)),
			zap.String("session", sess.info.ID))
		r.notify(Event{Type: EventUnregistered, Session: sess.info})
	}
	return nil
}

func (r *Registry) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, entry := range r.observers {
		entry.o.OnSessionEvent(e)
	}
}

// session is what Lookup hands to the bridge. Its Close releases the handle
// after the user sink's Close returns, so the handle is dead by the time the
// status reaches the encoder.
type session struct {
	reg  *Registry
	sink encbridge.Sink
	info SessionInfo
}

func (s *session) Write(p []byte) encbridge.Status {
	return s.sink.Write(p)
}

func (s *session) Close() encbridge.Status {
	st := s.sink.Close()

	if _, ok := s.reg.slots.remove(s.info.Handle); ok {
		s.reg.log().Debug("session closed",
			zap.Uint32("handle", uint32(s.info.Handle)),
			zap.String("session", s.info.ID),
			zap.Int32("status", int32(st)))
		s.reg.notify(Event{Type: EventClosed, Session: s.info, Status: st})
	}
	return st
}
