package registry

import (
	"time"

	"github.com/wippyai/encbridge"
)

// EventType identifies a session lifecycle notification.
type EventType uint8

const (
	EventRegistered EventType = iota
	// EventClosed follows a close callback; Status holds what the sink returned.
	EventClosed
	// EventUnregistered is a release without a close callback (host side or registry Close).
	EventUnregistered
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventClosed:
		return "closed"
	case EventUnregistered:
		return "unregistered"
	}
	return "unknown"
}

// Event represents a session lifecycle event.
type Event struct {
	Session SessionInfo
	Status  encbridge.Status
	Type    EventType
}

// Observer receives notifications about session lifecycle events.
// Observers run synchronously on the goroutine that caused the event.
type Observer interface {
	OnSessionEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnSessionEvent(e Event) { f(e) }

// SessionInfo describes a registered session.
type SessionInfo struct {
	Created time.Time
	ID      string
	Label   string
	Handle  encbridge.Handle
}

// Dropper is optionally implemented by sinks that need cleanup when their
// session is abandoned without a close callback.
type Dropper interface {
	Drop()
}

// SessionOption configures a single registration.
type SessionOption func(*SessionInfo)

// WithLabel attaches a human readable label (e.g. the output path).
func WithLabel(label string) SessionOption {
	return func(i *SessionInfo) {
		i.Label = label
	}
}
