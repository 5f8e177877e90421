package domain

import (
	"testing"
	"time"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Multiplier:     2.0,
	}

	if got := p.Backoff(1); got != 100*time.Millisecond {
		t.Errorf("attempt 1: got %v", got)
	}
	if got := p.Backoff(2); got != 200*time.Millisecond {
		t.Errorf("attempt 2: got %v", got)
	}
	if got := p.Backoff(3); got != 400*time.Millisecond {
		t.Errorf("attempt 3: got %v", got)
	}
	// Capped at MaxBackoff from here on
	if got := p.Backoff(4); got != 500*time.Millisecond {
		t.Errorf("attempt 4: got %v", got)
	}
	if got := p.Backoff(10); got != 500*time.Millisecond {
		t.Errorf("attempt 10: got %v", got)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts <= 1 {
		t.Error("default policy must allow retries")
	}
	if p.InitialBackoff <= 0 || p.MaxBackoff < p.InitialBackoff {
		t.Errorf("bad backoff bounds: %v / %v", p.InitialBackoff, p.MaxBackoff)
	}
}
