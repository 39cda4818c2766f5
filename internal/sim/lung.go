// Package sim is a bench test lung and a set of recording actuators. It lets
// the control loop run without hardware, faster than real time when driven
// from a manual clock.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/turtacn/Anima/internal/sensor"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/protocol"
)

// Signal names a lung output that a sensor can sample.
type Signal int

const (
	InspFlow Signal = iota
	ExpFlow
	InspPressure
	ExpPressure
	Reservoir
	Oxygen
	numSignals
)

var signalNames = [numSignals]string{"insp_flow", "exp_flow", "insp_pressure", "exp_pressure", "reservoir", "oxygen"}

func (s Signal) String() string {
	if s < 0 || s >= numSignals {
		return fmt.Sprintf("signal(%d)", int(s))
	}
	return signalNames[s]
}

// Lung is a single-compartment compliance/resistance model fed from a gas
// reservoir. Inspiratory flow follows the proportional valve drive; passive
// exhalation decays toward PEEP while the exhalation valve is open.
type Lung struct {
	cfg protocol.SimConfig

	insp         *PropValve
	exp, air, o2 *Valve

	volume    float64 // cc above functional residual capacity
	inspFlow  float64 // L/min
	expFlow   float64 // L/min
	reservoir float64 // cmH2O
	fio2      float64 // percent O2 in the reservoir

	effort      float64 // cmH2O drawn by the patient right now
	effortLeft  time.Duration
	sinceEffort time.Duration

	faults [numSignals]error
}

func newLung(cfg protocol.SimConfig, insp *PropValve, exp, air, o2 *Valve) *Lung {
	return &Lung{
		cfg:       cfg,
		insp:      insp,
		exp:       exp,
		air:       air,
		o2:        o2,
		reservoir: cfg.ReservoirStart,
		fio2:      consts.MinO2,
	}
}

// Step advances the model by dt.
func (l *Lung) Step(dt time.Duration) {
	ms := float64(dt) / float64(time.Millisecond)
	if ms <= 0 {
		return
	}

	l.inspFlow = l.valveFlow()
	delivered := l.inspFlow * consts.LPMToCCPerMS * ms
	l.volume += delivered
	l.reservoir = math.Max(l.reservoir-delivered*l.cfg.ReservoirPerCC, 0)

	l.refill(ms)

	l.expFlow = 0
	if l.exp.IsOpen() && l.volume > 0 {
		out := l.volume * (1 - math.Exp(-ms/l.tauMS()))
		l.volume -= out
		l.expFlow = out / ms * consts.CCPerMSToLPM
	}

	l.stepEffort(dt)
}

// valveFlow maps valve drive to flow, starved when the reservoir runs low.
func (l *Lung) valveFlow() float64 {
	level := l.insp.Level()
	if level <= l.cfg.CrackLevel {
		return 0
	}
	f := l.cfg.MaxFlow * (level - l.cfg.CrackLevel) / (consts.ValveLevelMax - l.cfg.CrackLevel)
	if l.reservoir < consts.InletAlarmPressure {
		f *= l.reservoir / consts.InletAlarmPressure
	}
	return f
}

func (l *Lung) refill(ms float64) {
	air, o2 := l.air.IsOpen(), l.o2.IsOpen()
	if !air && !o2 {
		return
	}
	src := 21.0
	switch {
	case air && o2:
		src = 60
	case o2:
		src = 100
	}
	add := l.cfg.SupplyFillRate * ms
	l.fio2 = (l.fio2*l.reservoir + src*add) / (l.reservoir + add)
	l.reservoir += add
}

func (l *Lung) stepEffort(dt time.Duration) {
	if l.effortLeft > 0 {
		l.effortLeft -= dt
		if l.effortLeft <= 0 {
			l.effort, l.effortLeft = 0, 0
		}
	}
	if l.cfg.EffortEvery <= 0 {
		return
	}
	l.sinceEffort += dt
	if l.sinceEffort >= l.cfg.EffortEvery.Std() {
		l.sinceEffort = 0
		l.Inhale(l.cfg.EffortDepth, 200*time.Millisecond)
	}
}

func (l *Lung) tauMS() float64 {
	return float64(l.cfg.ExhaleTau.Std()) / float64(time.Millisecond)
}

// Inhale simulates a patient effort pulling depth cmH2O below the circuit
// pressure for d.
func (l *Lung) Inhale(depth float64, d time.Duration) {
	l.effort, l.effortLeft = depth, d
}

// Fail makes reads of s return err until cleared with a nil err.
func (l *Lung) Fail(s Signal, err error) {
	if s >= 0 && s < numSignals {
		l.faults[s] = err
	}
}

// SetReservoir overrides the reservoir pressure.
func (l *Lung) SetReservoir(cmH2O float64) { l.reservoir = cmH2O }

func (l *Lung) Volume() float64 { return l.volume }

func (l *Lung) alveolar() float64 {
	return l.volume/l.cfg.Compliance + l.cfg.Peep - l.effort
}

// Value is the current noiseless value of s.
func (l *Lung) Value(s Signal) float64 {
	switch s {
	case InspFlow:
		return l.inspFlow
	case ExpFlow:
		return l.expFlow
	case InspPressure:
		return l.alveolar() + l.cfg.Resistance*l.inspFlow/60
	case ExpPressure:
		return l.alveolar()
	case Reservoir:
		return l.reservoir
	case Oxygen:
		return l.fio2
	}
	return math.NaN()
}

// Source returns a sensor source sampling s.
func (l *Lung) Source(s Signal) sensor.Source {
	return sensor.SourceFunc(func() (float64, error) {
		if err := l.faults[s]; err != nil {
			return 0, err
		}
		return l.Value(s), nil
	})
}

// Personal.AI order the ending
