package session

import (
	"log"

	"github.com/netphils/cefdetector-standalone/internal/client"
)

// Subscriptions owns at most one live push-channel stream. Acquiring a new
// stream always disposes the previous one first.
type Subscriptions struct {
	active client.Stream
	run    uint64
}

// Acquire makes stream the active subscription for run.
func (s *Subscriptions) Acquire(run uint64, stream client.Stream) {
	s.Dispose()
	s.active = stream
	s.run = run
}

// Dispose closes the active stream, if any. Calling it again is a no-op.
func (s *Subscriptions) Dispose() {
	if s.active == nil {
		return
	}
	if err := s.active.Close(); err != nil {
		log.Printf("session: closing subscription for run %d: %v", s.run, err)
	}
	s.active = nil
	s.run = 0
}

// Owns reports whether stream is the active subscription of run.
func (s *Subscriptions) Owns(run uint64, stream client.Stream) bool {
	return s.active != nil && s.active == stream && s.run == run
}

// Active reports whether a subscription is held.
func (s *Subscriptions) Active() bool {
	return s.active != nil
}

// Run returns the generation that owns the active subscription, or 0.
func (s *Subscriptions) Run() uint64 {
	return s.run
}
