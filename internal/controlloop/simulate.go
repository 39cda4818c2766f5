package controlloop

import (
	"time"

	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/breath"
	"github.com/turtacn/Anima/internal/panel"
	"github.com/turtacn/Anima/internal/timebase"
)

// SimOptions bound an accelerated run.
type SimOptions struct {
	// Breaths stops the run once this many breaths have completed. Zero
	// means no limit.
	Breaths uint64
	// StandbyAfter requests standby once this many breaths have started, so
	// the run ends in Off. Zero never requests it.
	StandbyAfter uint64
	// InspHoldEvery requests an inspiratory hold on every breath whose
	// number is a multiple of it. Zero never requests one.
	InspHoldEvery uint64
	// MaxDuration caps simulated time.
	MaxDuration time.Duration
}

type SimResult struct {
	Breaths uint64
	Ticks   uint64
	Elapsed time.Duration
	Final   breath.Phase
	Last    breath.Measurement
	Readout panel.Readout
	Alarms  alarm.Snapshot
}

// Simulate drives e from clock, advancing it one period per tick, as fast as
// the host allows.
func Simulate(e *Engine, clock *timebase.ManualClock, opt SimOptions) SimResult {
	if opt.MaxDuration <= 0 {
		opt.MaxDuration = 10 * time.Minute
	}

	e.Start()
	var elapsed time.Duration
	var held uint64
	phase := e.breath.Phase()
	for elapsed < opt.MaxDuration {
		clock.Advance(e.period)
		elapsed += e.period
		phase = e.Tick()

		if n := e.breath.CycleCount(); opt.InspHoldEvery > 0 && n > held && n%opt.InspHoldEvery == 0 {
			e.panel.RequestInspHold()
			held = n
		}

		if opt.StandbyAfter > 0 && e.breath.CycleCount() >= opt.StandbyAfter && !e.panel.Standby() {
			e.panel.SetStandby(true)
		}
		if opt.StandbyAfter > 0 && e.panel.Standby() && phase == breath.Off {
			break
		}
		if opt.Breaths > 0 && e.breath.Breath().Count >= opt.Breaths {
			break
		}
	}

	res := SimResult{
		Breaths: e.breath.Breath().Count,
		Ticks:   e.ticks,
		Elapsed: elapsed,
		Final:   phase,
		Last:    e.breath.Breath(),
		Readout: e.panel.Readout(),
		Alarms:  e.alarms.Snapshot(),
	}
	e.log.Info("Simulation finished",
		"breaths", res.Breaths,
		"elapsed", res.Elapsed,
		"phase", res.Final.String(),
		"top_alarm", res.Alarms.Top.String())
	return res
}

// Personal.AI order the ending
