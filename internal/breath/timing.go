package breath

import (
	"math"
	"time"

	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
)

// Params are the clinician settings in force for one breath. They are
// snapshotted when inspiration starts so a mid-breath edit applies to the
// next breath.
type Params struct {
	TidalVolume float64 // cc
	Rate        int     // breaths/min
	IEInsp      int
	IEExp       int
}

// ParamsFrom snapshots s.
func ParamsFrom(s Settings) Params {
	insp, exp := s.IERatio()
	return Params{TidalVolume: s.TidalVolume(), Rate: s.Rate(), IEInsp: insp, IEExp: exp}
}

// InspiratoryFraction is the share of the cycle allotted to inspiration.
func (p Params) InspiratoryFraction() float64 {
	if p.IEInsp <= 0 || p.IEExp <= 0 {
		return float64(consts.DefaultIEInsp) / float64(consts.DefaultIEInsp+consts.DefaultIEExp)
	}
	return float64(p.IEInsp) / float64(p.IEInsp+p.IEExp)
}

// Timing holds the fixed pauses and tolerances of the cycle.
type Timing struct {
	InspHold      time.Duration
	MinPeepPause  time.Duration
	InspTolerance time.Duration
	ExpTolerance  time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		InspHold:      consts.HoldInspDuration,
		MinPeepPause:  consts.MinPeepPause,
		InspTolerance: consts.InspTimeTolerance,
		ExpTolerance:  consts.ExpTimeTolerance,
	}
}

// Targets are the planned times and volumes of the current breath.
type Targets struct {
	CycleStart    timebase.Millis
	CycleDuration timebase.Millis
	InspDuration  timebase.Millis
	ExpDuration   timebase.Millis

	CycleEnd timebase.Millis
	InspEnd  timebase.Millis
	ExpEnd   timebase.Millis // valid once expiration has started

	ExpVolume       float64 // cc, valid once expiration has started
	DesiredInspFlow float64 // cc/ms
}

// ComputeTargets plans a breath that starts at cycleStart.
func ComputeTargets(cycleStart timebase.Millis, p Params, tm Timing) Targets {
	rate := p.Rate
	if rate <= 0 {
		rate = consts.DefaultRate
	}
	cycle := 60000.0 / float64(rate)
	insp := consts.InspDurationMargin * cycle * p.InspiratoryFraction()
	exp := math.Max(cycle-insp-float64(tm.MinPeepPause.Milliseconds()), 0)

	t := Targets{
		CycleStart:    cycleStart,
		CycleDuration: timebase.Millis(math.Round(cycle)),
		InspDuration:  timebase.Millis(math.Round(insp)),
		ExpDuration:   timebase.Millis(math.Round(exp)),
	}
	t.CycleEnd = cycleStart + t.CycleDuration
	t.InspEnd = cycleStart + t.InspDuration
	if t.InspDuration > 0 {
		t.DesiredInspFlow = p.TidalVolume / float64(t.InspDuration)
	}
	return t
}

// BeginExpiration fills in the expiration targets once exhalation starts
// at expStart with inspired cc delivered.
func (t *Targets) BeginExpiration(expStart timebase.Millis, inspired float64) {
	t.ExpVolume = consts.ExpVolumeFraction * inspired
	t.ExpEnd = expStart + t.ExpDuration
}

// DesiredInspFlowLPM is the inspiratory flow setpoint in L/min.
func (t Targets) DesiredInspFlowLPM() float64 {
	return t.DesiredInspFlow * consts.CCPerMSToLPM
}

// Personal.AI order the ending
