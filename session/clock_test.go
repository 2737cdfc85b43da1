package session

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	c := RealClock{}
	before := c.Now()
	time.Sleep(10 * time.Millisecond)
	if c.Since(before) < 10*time.Millisecond {
		t.Error("expected Since to track elapsed time")
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("expected %v, got %v", start, c.Now())
	}
	c.Advance(time.Minute)
	if c.Since(start) != time.Minute {
		t.Errorf("expected one minute elapsed, got %v", c.Since(start))
	}
}

func TestLoop_DeadlineFromClock(t *testing.T) {
	clock := NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	iterations := 0
	Register("clock_test_step", func(s *Session, args ...any) (*Session, error) {
		iterations++
		clock.Advance(40 * time.Millisecond)
		return s.OK()
	})

	s := newTestSession(t)
	s.Clock = clock
	s = s.Loop("clock_test_step", 100*time.Millisecond)

	// Deadline computed once at entry: iterations at t=0, 40, 80; the
	// check at t=120 stops the loop.
	if iterations != 3 {
		t.Errorf("expected 3 iterations against the fake clock, got %d", iterations)
	}
}
