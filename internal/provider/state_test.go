package provider

import "testing"

func TestStateTripsAtThreshold(t *testing.T) {
	s := NewState(5, false)

	for i := 0; i < 4; i++ {
		s.OnError()
		if !s.Available() {
			t.Fatalf("tripped after %d errors, threshold is 5", i+1)
		}
	}

	s.OnError()
	if s.Available() {
		t.Fatalf("expected unavailable after 5 errors")
	}
}

func TestStateSuccessClearsErrors(t *testing.T) {
	s := NewState(5, false)
	for i := 0; i < 4; i++ {
		s.OnError()
	}
	s.OnSuccess()
	if s.ErrorCount() != 0 {
		t.Fatalf("expected cleared count, got %d", s.ErrorCount())
	}
	if !s.Available() {
		t.Fatalf("expected available after success")
	}
}

func TestStateReset(t *testing.T) {
	s := NewState(5, false)
	for i := 0; i < 7; i++ {
		s.OnError()
	}
	if s.Available() {
		t.Fatalf("expected tripped")
	}
	s.Reset()
	if !s.Available() || s.ErrorCount() != 0 {
		t.Fatalf("expected reset to restore availability")
	}
}

func TestPinnedStateNeverTrips(t *testing.T) {
	s := NewState(5, true)
	for i := 0; i < 100; i++ {
		s.OnError()
	}
	if !s.Available() {
		t.Fatalf("pinned state must stay available")
	}
	if s.ErrorCount() != 0 {
		t.Fatalf("pinned state must not count errors, got %d", s.ErrorCount())
	}
}
