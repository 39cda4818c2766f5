// Package sensor turns raw samples into the readings the breath cycle
// consumes: flow with volume integration, pressure with peak, plateau and
// PEEP latching, and oxygen concentration. Analog conversion happens in the
// Source.
package sensor

import (
	"math"

	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/errors"
)

// Source yields one converted sample. It is polled at most once per tick.
type Source interface {
	Sample() (float64, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (float64, error)

func (f SourceFunc) Sample() (float64, error) { return f() }

func sample(src Source, name string) (float64, error) {
	v, err := src.Sample()
	if err != nil {
		return 0, errors.New(errors.ErrCodeSensorRead, "Read", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrCodeSensorRead, "Read", name+": non-finite sample", nil)
	}
	return v, nil
}

// Flow measures flow in L/min and integrates volume in cc at one atmosphere.
type Flow struct {
	name string
	src  Source

	rate float64

	last   timebase.Millis
	volume float64
}

func NewFlow(name string, src Source) *Flow {
	return &Flow{name: name, src: src}
}

// Read samples the source. On error the previous reading is kept.
func (f *Flow) Read() error {
	v, err := sample(f.src, f.name)
	if err != nil {
		return err
	}
	f.rate = v
	return nil
}

func (f *Flow) Get() float64 { return f.rate }

// ResetVolume zeroes the accumulated volume and starts integrating at now.
func (f *Flow) ResetVolume(now timebase.Millis) {
	f.volume = 0
	f.last = now
}

// IntegrateVolume adds the current flow over the time since the last call.
func (f *Flow) IntegrateVolume(now timebase.Millis) {
	dt := float64(timebase.Since(now, f.last))
	f.volume += f.rate * consts.LPMToCCPerMS * dt
	f.last = now
}

func (f *Flow) Volume() float64 { return f.volume }

// Pressure measures airway pressure in cmH2O and latches derived values on demand.
type Pressure struct {
	name string
	src  Source

	current     float64
	currentPeak float64
	peak        float64
	plateau     float64
	peep        float64
}

func NewPressure(name string, src Source) *Pressure {
	return &Pressure{name: name, src: src}
}

func (p *Pressure) Read() error {
	v, err := sample(p.src, p.name)
	if err != nil {
		return err
	}
	p.current = v
	p.currentPeak = math.Max(p.currentPeak, v)
	return nil
}

func (p *Pressure) Get() float64 { return p.current }

// Peak is the maximum latched by the last SetPeakAndReset.
func (p *Pressure) Peak() float64 { return p.peak }

// SetPeakAndReset latches the running maximum and starts a new one.
func (p *Pressure) SetPeakAndReset() {
	p.peak = p.currentPeak
	p.currentPeak = 0
}

func (p *Pressure) Plateau() float64 { return p.plateau }

func (p *Pressure) SetPlateau() { p.plateau = p.current }

func (p *Pressure) Peep() float64 { return p.peep }

func (p *Pressure) SetPeep() { p.peep = p.current }

// Oxygen measures oxygen concentration in percent.
type Oxygen struct {
	name    string
	src     Source
	percent float64
}

func NewOxygen(name string, src Source) *Oxygen {
	return &Oxygen{name: name, src: src}
}

func (o *Oxygen) Read() error {
	v, err := sample(o.src, o.name)
	if err != nil {
		return err
	}
	o.percent = v
	return nil
}

func (o *Oxygen) Get() float64 { return o.percent }

// Personal.AI order the ending
