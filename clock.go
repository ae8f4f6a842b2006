package gpuparticles

import "time"

// maxFrameDelta caps the delta reported after a stall.
const maxFrameDelta = 100 * time.Millisecond

// FrameClock measures the wall time between frames.
type FrameClock struct {
	Time time.Time
	Dt   time.Duration

	now func() time.Time
}

func NewFrameClock() *FrameClock {
	return &FrameClock{Time: time.Now(), now: time.Now}
}

// Tick advances the clock to now and returns the clamped delta.
func (c *FrameClock) Tick() time.Duration {
	now := c.now()
	c.Dt = now.Sub(c.Time)
	if c.Dt < 0 {
		c.Dt = 0
	}
	if c.Dt > maxFrameDelta {
		c.Dt = maxFrameDelta
	}
	c.Time = now
	return c.Dt
}
