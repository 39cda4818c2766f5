// Package timebase provides the control loop's monotonic millisecond clock
// and the rollover-safe comparisons every other component relies on.
package timebase

import (
	"math"
	"time"
)

// Millis is a wrapping 32-bit millisecond counter, as produced by a
// microcontroller tick. Arithmetic on it is modulo 2^32.
type Millis uint32

// halfRange is half the clock's value space; differences at or above it are
// read as "target is in the future" rather than "target is long past".
const halfRange = math.MaxUint32>>1 + 1

// Clock supplies the current time.
type Clock interface {
	Now() Millis
}

// HasElapsed reports whether now has reached target, treating very large
// differences as the result of counter rollover.
func HasElapsed(now, target Millis) bool {
	return uint32(now-target) < halfRange
}

// Since returns the milliseconds from start to now, modulo the clock range.
func Since(now, start Millis) Millis {
	return now - start
}

// Add offsets t by d, truncated to whole milliseconds.
func Add(t Millis, d time.Duration) Millis {
	return t + Millis(d/time.Millisecond)
}

// Duration converts a millisecond span to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// FromDuration converts d to a millisecond span.
func FromDuration(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() Millis {
	// Truncation to 32 bits is the rollover.
	return Millis(uint64(time.Since(c.start).Milliseconds()))
}

// ManualClock is advanced explicitly. It drives simulations and tests.
type ManualClock struct {
	now Millis
}

func NewManualClock(start Millis) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() Millis { return c.now }

func (c *ManualClock) Set(t Millis) { c.now = t }

func (c *ManualClock) Advance(d time.Duration) Millis {
	c.now = Add(c.now, d)
	return c.now
}

// Personal.AI order the ending
