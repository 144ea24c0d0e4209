// Package registry provides the handle table that correlates encoder
// callbacks with host-side sinks.
//
// An encoder never sees a Go value. It is given an integer handle when its
// session starts and passes that handle back on every write and close
// callback. The Registry maps the handle to the session's Sink:
//
//	reg := registry.New()
//
//	// Register a sink, get a handle for the encoder
//	h, err := reg.Register(sink.Writer(f), registry.WithLabel("out.ogg"))
//
//	// Resolve on every callback (read lock only)
//	s, ok := reg.Lookup(h)
//
//	// Release without a close callback (e.g. encoder creation failed)
//	reg.Unregister(h)
//
// # Handle Lifecycle
//
// A handle is valid from Register until either the close callback for it
// returns or Unregister is called. Closing the sink returned by Lookup
// releases the handle after the underlying Close returns, so the encoder
// observes the close status with the handle already dead.
//
// Handles carry a per-slot generation. A handle used after its session ended
// does not resolve, even when its slot has been reused by a newer session.
// Handle 0 is never issued.
//
// # Observers
//
// Register observers to track session lifecycle events:
//
//	stop := reg.Subscribe(registry.ObserverFunc(func(e registry.Event) {
//	    switch e.Type {
//	    case registry.EventRegistered:
//	        log.Printf("session %s opened", e.Session.ID)
//	    case registry.EventClosed:
//	        log.Printf("session %s closed with %d", e.Session.ID, e.Status)
//	    }
//	}))
//	defer stop()
//
// # Shutdown
//
// Close abandons any sessions still live, calling Drop on sinks that
// implement Dropper, and makes further Register calls fail.
package registry
