package provider

import "sync"

// State is the error breaker attached to one provider. After maxErrors
// consecutive failures the provider is considered unavailable until a
// success or an explicit reset. Pinned providers never trip.
type State struct {
	mu         sync.Mutex
	errorCount int
	maxErrors  int
	pinned     bool
}

// NewState creates a breaker with the given threshold.
func NewState(maxErrors int, pinned bool) *State {
	if maxErrors <= 0 {
		maxErrors = 5
	}
	return &State{maxErrors: maxErrors, pinned: pinned}
}

// Available reports whether the provider may be used.
func (s *State) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned {
		return true
	}
	return s.errorCount < s.maxErrors
}

// OnSuccess clears the error count.
func (s *State) OnSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount = 0
}

// OnError records a failure. No-op for pinned providers.
func (s *State) OnError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned {
		return
	}
	s.errorCount++
}

// Reset clears the error count unconditionally.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount = 0
}

// ErrorCount returns the current consecutive error count.
func (s *State) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// MaxErrors returns the trip threshold.
func (s *State) MaxErrors() int {
	return s.maxErrors
}

// Pinned reports whether the breaker is exempt from tripping.
func (s *State) Pinned() bool {
	return s.pinned
}
