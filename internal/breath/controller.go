// Package breath runs the ventilator's breath cycle: inspiration toward a
// set tidal volume, optional inspiratory hold, exhalation, PEEP pause and an
// expiratory hold that waits for the patient or the mandatory rate.
package breath

import (
	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/fsm"
	"github.com/turtacn/Anima/pkg/logger"
)

// Thresholds are the alarm limits checked once per breath.
type Thresholds struct {
	PlateauMax              float64 // cmH2O
	PeepSensitivity         float64 // cmH2O
	InspPressureSensitivity float64 // cmH2O
	TidalVolumePercent      float64 // percent of the set tidal volume
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PlateauMax:              consts.PlateauMax,
		PeepSensitivity:         consts.PeepSensitivity,
		InspPressureSensitivity: consts.InspPressureSensitivity,
		TidalVolumePercent:      consts.TidalVolumeSensitivity,
	}
}

type Config struct {
	Timing     Timing
	Thresholds Thresholds
}

func DefaultConfig() Config {
	return Config{Timing: DefaultTiming(), Thresholds: DefaultThresholds()}
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Clock     timebase.Clock
	Devices   Devices
	Flow      FlowController
	Settings  Settings
	Telemetry Telemetry
	Alarms    AlarmSink
	Log       logger.Logger

	// OnActuatorError is called when a solenoid refuses a command. Optional.
	OnActuatorError func(error)
}

// Measurement is what was observed over the most recently completed breath.
type Measurement struct {
	Count            uint64
	CycleDuration    timebase.Millis
	InspDuration     timebase.Millis
	ExpDuration      timebase.Millis
	TidalVolumeInsp  float64 // cc
	TidalVolumeExp   float64 // cc
	MinuteVolume     float64 // L/min
	InspTimedOut     bool
	PatientTriggered bool
}

// Controller is the breath-cycle state machine. Update is called once per
// control tick; it is not safe for concurrent use.
type Controller struct {
	cfg Config
	d   Deps
	log logger.Logger
	sm  *fsm.Machine[Phase]

	now     timebase.Millis
	params  Params
	targets Targets
	last    Measurement

	cycles       uint64
	cycleStart   timebase.Millis
	holdStart    timebase.Millis
	expStart     timebase.Millis
	peepStart    timebase.Millis
	inspDuration timebase.Millis
	inspTimedOut bool

	lastPeak Baseline
	lastPeep Baseline
}

// NewController returns a controller in Off. Call Start before the first
// Update.
func NewController(cfg Config, d Deps) *Controller {
	c := &Controller{
		cfg: cfg,
		d:   d,
		log: logger.Component(d.Log, "breath"),
	}
	c.sm = fsm.New(Off, c.enter, c.update)
	c.sm.OnTransition(func(from, to Phase) {
		c.log.Debug("Phase transition", "from", from.String(), "to", to.String(), "cycle", c.cycles)
	})
	return c
}

// OnTransition registers fn to run after every phase change.
func (c *Controller) OnTransition(fn func(from, to Phase)) {
	c.sm.OnTransition(fn)
}

// Start puts the circuit in its fail-safe resting configuration: flow valve
// closed and exhalation valve open. No alarm is raised.
func (c *Controller) Start() {
	c.d.Flow.EndBreath()
	c.open(c.d.Devices.ExpValve, "expiratory")
	c.log.Info("Breath controller started", "phase", c.sm.Current().String())
}

// Update runs one tick of the current phase.
func (c *Controller) Update() Phase {
	c.now = c.d.Clock.Now()
	c.d.Telemetry.UpdatePressureWave(c.d.Devices.InspPressure.Get())
	p, _ := c.sm.Step()
	return p
}

// Shutdown forces the cycle to Off from any phase.
func (c *Controller) Shutdown() {
	c.now = c.d.Clock.Now()
	if c.sm.Current() == Off {
		c.Start()
		return
	}
	c.log.Warn("Forced shutdown", "phase", c.sm.Current().String())
	c.sm.Force(Off)
}

func (c *Controller) Phase() Phase { return c.sm.Current() }

// Targets returns the plan for the breath in progress.
func (c *Controller) Targets() Targets { return c.targets }

// Params returns the settings snapshot in force for the breath in progress.
func (c *Controller) Params() Params { return c.params }

// Breath returns the measurements of the last completed breath.
func (c *Controller) Breath() Measurement { return c.last }

// CycleCount is the number of breaths started.
func (c *Controller) CycleCount() uint64 { return c.cycles }

// Transitions is the number of phase changes taken.
func (c *Controller) Transitions() uint64 { return c.sm.Transitions() }

func (c *Controller) enter(from, to Phase) {
	switch to {
	case Off:
		c.enterOff(from)
	case Inspiration:
		c.enterInspiration(from)
	case InspiratoryHold:
		c.enterInspiratoryHold()
	case Expiration:
		c.enterExpiration()
	case PeepPause:
		c.peepStart = c.now
	case ExpiratoryHold:
	}
}

func (c *Controller) update(cur Phase) Phase {
	switch cur {
	case Off:
		return c.updateOff()
	case Inspiration:
		return c.updateInspiration()
	case InspiratoryHold:
		return c.updateInspiratoryHold()
	case Expiration:
		return c.updateExpiration()
	case PeepPause:
		return c.updatePeepPause()
	case ExpiratoryHold:
		return c.updateExpiratoryHold()
	}
	c.log.Error("Unknown breath phase", "phase", int(cur))
	return Off
}

func (c *Controller) enterOff(from Phase) {
	c.d.Flow.EndBreath()
	c.open(c.d.Devices.ExpValve, "expiratory")
	c.d.Alarms.Activate(alarm.Shutdown)
	c.log.Warn("Ventilation stopped", "from", from.String(), "cycles", c.cycles)
}

func (c *Controller) updateOff() Phase {
	if c.d.Settings.Standby() {
		return Off
	}
	c.d.Alarms.Deactivate(alarm.Shutdown)
	c.log.Info("Ventilation starting")
	return Inspiration
}

func (c *Controller) enterInspiration(from Phase) {
	now := c.now
	switch {
	case from == Off:
		// nothing measured since the stop; pressures start a fresh baseline
		c.lastPeak.Clear()
		c.lastPeep.Clear()
	case c.cycles > 0:
		c.finishBreath(now)
	}

	c.cycleStart = now
	c.inspTimedOut = false
	c.close(c.d.Devices.ExpValve, "expiratory")

	c.params = ParamsFrom(c.d.Settings)
	c.targets = ComputeTargets(now, c.params, c.cfg.Timing)
	c.d.Flow.BeginBreath(now, c.targets.DesiredInspFlowLPM())
	c.d.Devices.InspFlow.ResetVolume(now)
	c.cycles++
}

// finishBreath closes out the previous breath: timing, volumes, telemetry
// and the once-per-breath range checks.
func (c *Controller) finishBreath(now timebase.Millis) {
	m := &c.last
	m.Count = c.cycles
	m.CycleDuration = timebase.Since(now, c.cycleStart)
	m.InspDuration = c.inspDuration
	m.ExpDuration = timebase.Since(now, c.expStart)
	m.TidalVolumeInsp = c.d.Devices.InspFlow.Volume()
	m.TidalVolumeExp = c.d.Devices.ExpFlow.Volume()
	m.InspTimedOut = c.inspTimedOut
	m.MinuteVolume = 0
	if m.CycleDuration > 0 {
		m.MinuteVolume = m.TidalVolumeInsp / float64(m.CycleDuration) * 60
	}

	dev := c.d.Devices
	tel := c.d.Telemetry
	tel.WritePeak(dev.InspPressure.Peak())
	tel.WritePlateau(dev.InspPressure.Plateau())
	tel.WritePeep(dev.ExpPressure.Peep())
	tel.WriteVolumeExp(m.TidalVolumeExp)
	tel.WriteMinuteVolume(m.MinuteVolume)
	if m.CycleDuration > 0 {
		tel.WriteRate(60000 / float64(m.CycleDuration))
	}
	if dev.Oxygen != nil {
		tel.WriteFiO2(dev.Oxygen.Get())
	} else {
		tel.WriteFiO2(float64(c.d.Settings.O2Target()))
	}

	th := c.cfg.Thresholds
	a := c.d.Alarms
	CheckRangeWithUpdate(a, dev.InspPressure.Peak(), &c.lastPeak, th.InspPressureSensitivity,
		alarm.InspPressureHigh, alarm.InspPressureLow)
	CheckRangeWithUpdate(a, dev.ExpPressure.Peep(), &c.lastPeep, th.PeepSensitivity,
		alarm.PeepHigh, alarm.PeepLow)
	// low tidal volume belongs to the inspiration timeout
	if set := c.params.TidalVolume; m.TidalVolumeInsp > set+set*th.TidalVolumePercent/100 {
		a.Activate(alarm.TidalVolumeHigh)
	}

	c.log.Debug("Breath complete",
		"cycle", m.Count,
		"vti", m.TidalVolumeInsp,
		"vte", m.TidalVolumeExp,
		"cycle_ms", uint32(m.CycleDuration),
		"triggered", m.PatientTriggered)
}

func (c *Controller) updateInspiration() Phase {
	now := c.now
	flow := c.d.Devices.InspFlow
	rate := flow.Get()
	c.d.Telemetry.UpdateFlowWave(rate)
	flow.IntegrateVolume(now)

	reached := flow.Volume() >= c.params.TidalVolume
	timedOut := timebase.HasElapsed(now, timebase.Add(c.targets.InspEnd, c.cfg.Timing.InspTolerance))
	if !reached && !timedOut {
		c.d.Flow.MaintainBreath(now, rate)
		return Inspiration
	}

	c.inspDuration = timebase.Since(now, c.cycleStart)
	if reached {
		c.d.Alarms.Deactivate(alarm.TidalVolumeLow)
	} else {
		c.inspTimedOut = true
		c.d.Alarms.Activate(alarm.TidalVolumeLow)
		c.log.Warn("Inspiration timed out before reaching tidal volume",
			"volume", flow.Volume(), "target", c.params.TidalVolume)
	}

	if c.d.Settings.InspHold() {
		return InspiratoryHold
	}
	return Expiration
}

func (c *Controller) enterInspiratoryHold() {
	c.d.Flow.EndBreath()
	c.holdStart = c.now
	c.d.Settings.ResetInspHold()
}

func (c *Controller) updateInspiratoryHold() Phase {
	c.d.Telemetry.UpdateFlowWave(c.d.Devices.InspFlow.Get())
	if timebase.Since(c.now, c.holdStart) < timebase.FromDuration(c.cfg.Timing.InspHold) {
		return InspiratoryHold
	}
	p := c.d.Devices.InspPressure
	p.SetPlateau()
	if p.Plateau() > c.cfg.Thresholds.PlateauMax {
		c.d.Alarms.Activate(alarm.PlateauHigh)
	} else {
		c.d.Alarms.Deactivate(alarm.PlateauHigh)
	}
	return Expiration
}

func (c *Controller) enterExpiration() {
	now := c.now
	dev := c.d.Devices
	dev.InspPressure.SetPeakAndReset()
	inspired := dev.InspFlow.Volume()
	c.d.Telemetry.WriteVolumeInsp(inspired)

	c.d.Flow.EndBreath()
	c.open(dev.ExpValve, "expiratory")
	c.expStart = now
	c.targets.BeginExpiration(now, inspired)
	dev.ExpFlow.ResetVolume(now)
}

func (c *Controller) updateExpiration() Phase {
	now := c.now
	flow := c.exhaled(now)
	if flow.Volume() >= c.targets.ExpVolume {
		return PeepPause
	}
	if timebase.HasElapsed(now, timebase.Add(c.targets.ExpEnd, c.cfg.Timing.ExpTolerance)) {
		c.log.Debug("Expiration timed out", "volume", flow.Volume(), "target", c.targets.ExpVolume)
		return PeepPause
	}
	return Expiration
}

func (c *Controller) updatePeepPause() Phase {
	c.exhaled(c.now)
	if timebase.Since(c.now, c.peepStart) < timebase.FromDuration(c.cfg.Timing.MinPeepPause) {
		return PeepPause
	}
	c.d.Devices.ExpPressure.SetPeep()
	return ExpiratoryHold
}

func (c *Controller) updateExpiratoryHold() Phase {
	c.exhaled(c.now)
	p := c.d.Devices.ExpPressure
	triggered := p.Get() < p.Peep()-c.d.Settings.Sensitivity()
	if !triggered && !timebase.HasElapsed(c.now, c.targets.CycleEnd) {
		return ExpiratoryHold
	}
	c.last.PatientTriggered = triggered
	if c.d.Settings.Standby() {
		return Off
	}
	return Inspiration
}

// exhaled publishes the expiratory flow (negative on the waveform) and
// accumulates exhaled volume.
func (c *Controller) exhaled(now timebase.Millis) FlowSensor {
	flow := c.d.Devices.ExpFlow
	c.d.Telemetry.UpdateFlowWave(-flow.Get())
	flow.IntegrateVolume(now)
	return flow
}

func (c *Controller) open(v Valve, name string) {
	if v == nil {
		return
	}
	if err := v.Open(); err != nil {
		c.actuatorError(name, "open", err)
	}
}

func (c *Controller) close(v Valve, name string) {
	if v == nil {
		return
	}
	if err := v.Close(); err != nil {
		c.actuatorError(name, "close", err)
	}
}

func (c *Controller) actuatorError(valve, op string, err error) {
	c.log.Error("Valve command failed", "valve", valve, "op", op, "error", err)
	if c.d.OnActuatorError != nil {
		c.d.OnActuatorError(err)
	}
}

// Personal.AI order the ending
