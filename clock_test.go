package gpuparticles

import (
	"testing"
	"time"
)

func TestFrameClock_Tick(t *testing.T) {
	start := time.Unix(100, 0)
	now := start
	c := &FrameClock{Time: start, now: func() time.Time { return now }}

	now = start.Add(16 * time.Millisecond)
	if dt := c.Tick(); dt != 16*time.Millisecond {
		t.Errorf("Expected 16ms, got %v", dt)
	}

	now = now.Add(5 * time.Second)
	if dt := c.Tick(); dt != maxFrameDelta {
		t.Errorf("Expected a stall to clamp to %v, got %v", maxFrameDelta, dt)
	}

	now = now.Add(-time.Second)
	if dt := c.Tick(); dt != 0 {
		t.Errorf("Expected a backwards clock to yield 0, got %v", dt)
	}
	if !c.Time.Equal(now) {
		t.Errorf("Expected clock time %v, got %v", now, c.Time)
	}
}
