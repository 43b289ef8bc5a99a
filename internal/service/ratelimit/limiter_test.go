package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowBurst(t *testing.T) {
	l := NewPerMinute(5)
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("allow %d: expected token", i)
		}
	}
	if l.Allow() {
		t.Fatalf("expected bucket exhausted after burst")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := NewPerMinute(1)
	if !l.Allow() {
		t.Fatalf("expected first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatalf("expected context error while bucket empty")
	}
}
