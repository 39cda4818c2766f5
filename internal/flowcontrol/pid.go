package flowcontrol

import (
	"time"

	"github.com/turtacn/Anima/internal/timebase"
)

// Mode selects whether the PID drives its output.
type Mode int

const (
	Manual Mode = iota
	Automatic
)

// PID is a direct-acting discrete controller with integral clamping to the
// output band and derivative on measurement. It steps at most once per
// sample interval and integrates over the time actually elapsed.
type PID struct {
	kp, ki, kd float64 // per second
	sample     time.Duration
	min, max   float64

	mode      Mode
	setpoint  float64
	lastInput float64
	outputSum float64
	output    float64

	primed   bool // a step has run since entering Automatic
	lastStep timebase.Millis
}

// NewPID builds a controller in Manual mode. Gains are per second.
func NewPID(kp, ki, kd float64, sample time.Duration, lo, hi float64) *PID {
	p := &PID{sample: sample, min: lo, max: hi}
	p.SetTunings(kp, ki, kd)
	return p
}

func (p *PID) SetTunings(kp, ki, kd float64) {
	if kp < 0 || ki < 0 || kd < 0 {
		return
	}
	p.kp, p.ki, p.kd = kp, ki, kd
}

func (p *PID) SetSetpoint(sp float64) { p.setpoint = sp }

func (p *PID) Setpoint() float64 { return p.setpoint }

func (p *PID) Output() float64 { return p.output }

func (p *PID) Mode() Mode { return p.mode }

func (p *PID) Limits() (float64, float64) { return p.min, p.max }

// SetMode switches mode. Entering Automatic from Manual seeds the integrator
// from the current output so the first step is bumpless.
func (p *PID) SetMode(m Mode, input float64) {
	if m == Automatic && p.mode == Manual {
		p.outputSum = p.clamp(p.output)
		p.lastInput = input
		p.primed = false
	}
	p.mode = m
}

// Seed sets the output the next Automatic step starts from.
func (p *PID) Seed(output float64) {
	p.output = p.clamp(output)
	p.outputSum = p.output
}

// Reset clears the accumulator and disables the controller.
func (p *PID) Reset() {
	p.mode = Manual
	p.outputSum = 0
	p.lastInput = 0
	p.primed = false
}

// Compute runs one step on input at now and returns the clamped output. In
// Manual mode, or before a full sample interval has passed since the last
// step, the output is left unchanged. The first step after entering
// Automatic takes its derivative reference from input and integrates over
// one nominal interval.
func (p *PID) Compute(now timebase.Millis, input float64) float64 {
	if p.mode != Automatic {
		return p.output
	}
	dt := p.sample
	if p.primed {
		elapsed := timebase.Since(now, p.lastStep)
		if elapsed < timebase.FromDuration(p.sample) {
			return p.output
		}
		dt = elapsed.Duration()
	} else {
		p.lastInput = input
	}
	p.primed, p.lastStep = true, now

	secs := dt.Seconds()
	err := p.setpoint - input
	dInput := input - p.lastInput
	var deriv float64
	if secs > 0 {
		deriv = p.kd * dInput / secs
	}

	p.outputSum = p.clamp(p.outputSum + p.ki*secs*err)
	p.output = p.clamp(p.kp*err + p.outputSum - deriv)
	p.lastInput = input
	return p.output
}

func (p *PID) clamp(v float64) float64 {
	if v > p.max {
		return p.max
	}
	if v < p.min {
		return p.min
	}
	return v
}

// Personal.AI order the ending
