package sim

import (
	"time"

	"github.com/turtacn/Anima/pkg/protocol"
)

// Bench is a test lung wired to recording actuators.
type Bench struct {
	Lung *Lung

	InspValve *PropValve
	ExpValve  *Valve
	AirValve  *Valve
	O2Valve   *Valve

	Buzzer *Buzzer
	Red    *Lamp
	Yellow *Lamp
}

// NewBench builds a bench at rest: exhalation valve open, supplies closed.
func NewBench(cfg protocol.SimConfig) *Bench {
	b := &Bench{
		InspValve: &PropValve{},
		ExpValve:  NewValve("expiratory", true),
		AirValve:  NewValve("air", false),
		O2Valve:   NewValve("o2", false),
		Buzzer:    &Buzzer{},
		Red:       &Lamp{},
		Yellow:    &Lamp{},
	}
	b.Lung = newLung(cfg, b.InspValve, b.ExpValve, b.AirValve, b.O2Valve)
	return b
}

// Step advances the lung.
func (b *Bench) Step(dt time.Duration) { b.Lung.Step(dt) }

// Personal.AI order the ending
