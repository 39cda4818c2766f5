package flowcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/Anima/internal/timebase"
)

func TestPID_ManualHoldsOutput(t *testing.T) {
	p := NewPID(1, 1, 0, 50*time.Millisecond, 0, 100)
	p.Seed(42)
	p.SetSetpoint(10)
	assert.Equal(t, 42.0, p.Compute(0, 0))
	assert.Equal(t, Manual, p.Mode())
}

func TestPID_OutputClampedUnderExtremes(t *testing.T) {
	cases := []struct {
		name     string
		setpoint float64
		feedback float64
	}{
		{"zero feedback", 25, 0},
		{"huge setpoint", 1e9, 0},
		{"huge feedback", 0, 1e9},
		{"negative feedback", 30, -1e6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPID(0.225, 1.08, 0.5, 50*time.Millisecond, 40, 120)
			p.Seed(80)
			p.SetMode(Automatic, tc.feedback)
			p.SetSetpoint(tc.setpoint)
			for i := 0; i < 1000; i++ {
				out := p.Compute(timebase.Millis(i*50), tc.feedback)
				assert.GreaterOrEqual(t, out, 40.0)
				assert.LessOrEqual(t, out, 120.0)
			}
		})
	}
}

func TestPID_BumplessTransfer(t *testing.T) {
	p := NewPID(0, 1, 0, 50*time.Millisecond, 0, 200)
	p.Seed(90)
	p.SetSetpoint(20)
	p.SetMode(Automatic, 20)

	// zero error: integral-only controller stays at the seed
	assert.InDelta(t, 90.0, p.Compute(0, 20), 1e-9)
}

func TestPID_IntegralDrivesTowardSetpoint(t *testing.T) {
	p := NewPID(0.2, 1.0, 0, 50*time.Millisecond, 0, 200)
	p.Seed(50)
	p.SetMode(Automatic, 0)
	p.SetSetpoint(30)

	first := p.Compute(0, 10)
	second := p.Compute(50, 10)
	assert.Greater(t, second, first, "persistent positive error keeps integrating")

	p.SetSetpoint(0)
	third := p.Compute(100, 10)
	assert.Less(t, third, second)
}

func TestPID_ResetDisables(t *testing.T) {
	p := NewPID(1, 1, 0, 50*time.Millisecond, 0, 100)
	p.SetMode(Automatic, 0)
	p.Reset()
	assert.Equal(t, Manual, p.Mode())
	lo, hi := p.Limits()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 100.0, hi)
}

func TestPID_RejectsNegativeGains(t *testing.T) {
	p := NewPID(1, 0, 0, 50*time.Millisecond, -100, 100)
	p.SetTunings(-1, 0, 0)
	p.SetMode(Automatic, 0)
	p.SetSetpoint(10)
	assert.InDelta(t, 10.0, p.Compute(0, 0), 1e-9, "original kp kept")
}

func TestPID_HoldsBetweenSamples(t *testing.T) {
	p := NewPID(1, 1, 0, 50*time.Millisecond, -100, 100)
	p.SetMode(Automatic, 0)
	p.SetSetpoint(10)

	first := p.Compute(0, 0)
	assert.Equal(t, first, p.Compute(30, 0), "30 ms is inside the sample interval")
	assert.Greater(t, p.Compute(60, 0), first)
}

func TestPID_IntegralRateMatchesGain(t *testing.T) {
	// ki of 1/s against a constant error of 1 adds about 1 per second,
	// whatever the tick period
	for _, tick := range []timebase.Millis{10, 30, 50} {
		p := NewPID(0, 1, 0, 50*time.Millisecond, -100, 100)
		p.SetMode(Automatic, 0)
		p.SetSetpoint(1)
		var out float64
		for now := timebase.Millis(0); now < 1000; now += tick {
			out = p.Compute(now, 0)
		}
		assert.InDelta(t, 1.0, out, 0.1, "tick %d ms", tick)
	}
}

func TestPID_NoDerivativeKickOnFirstStep(t *testing.T) {
	p := NewPID(0, 0, 1, 50*time.Millisecond, -1000, 1000)
	p.Seed(5)
	p.SetMode(Automatic, 0)
	p.SetSetpoint(20)

	assert.InDelta(t, 5.0, p.Compute(0, 20), 1e-9, "first reading is the derivative reference")
	// a real change in measurement still acts
	assert.Less(t, p.Compute(50, 25), 5.0)
}
