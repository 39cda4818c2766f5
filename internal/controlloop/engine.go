// Package controlloop owns every piece of controller state and drives it from
// a single fixed-period tick.
package controlloop

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/breath"
	"github.com/turtacn/Anima/internal/flowcontrol"
	"github.com/turtacn/Anima/internal/monitor"
	"github.com/turtacn/Anima/internal/panel"
	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/logger"
	"github.com/turtacn/Anima/pkg/protocol"
)

type Engine struct {
	cfg     *protocol.Config
	clock   timebase.Clock
	rig     Rig
	log     logger.Logger
	session string
	period  time.Duration

	panel   *panel.Panel
	alarms  *alarm.Manager
	flow    *flowcontrol.Controller
	breath  *breath.Controller
	blender *breath.GasBlender

	readings []reading
	ticks    uint64
}

// reading is one sensor polled every tick. fail is raised while the sensor
// cannot be read, None when the sensor has no alarm of its own.
type reading struct {
	name    string
	sensor  interface{ Read() error }
	fail    alarm.Code
	faulted bool
}

func NewEngine(cfg *protocol.Config, clock timebase.Clock, rig Rig, log logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.Log
	}
	session := uuid.NewString()
	log = log.With("session", session)

	p, err := panel.New(cfg.Settings, cfg.Service.StartInStandby, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		clock:   clock,
		rig:     rig,
		log:     logger.Component(log, "engine"),
		session: session,
		period:  cfg.Service.LoopPeriod.Std(),
		panel:   p,
	}

	e.alarms = alarm.NewManager(clock, alarm.Outputs{
		Buzzer: rig.Buzzer,
		Red:    rig.Red,
		Yellow: rig.Yellow,
		Banner: p,
	}, log)
	e.alarms.AddObserver(monitor.AlarmObserver{})

	e.flow = flowcontrol.New(flowConfig(cfg.FlowControl), meteredValve{rig.InspValve}, log)
	e.flow.OnWriteError(func(error) {
		monitor.ActuatorErrors.WithLabelValues("inspiratory").Inc()
	})

	deps := breath.Deps{
		Clock:     clock,
		Devices:   rig.devices(),
		Flow:      e.flow,
		Settings:  p,
		Telemetry: p,
		Alarms:    e.alarms,
		Log:       log,
		OnActuatorError: func(error) {
			monitor.ActuatorErrors.WithLabelValues("solenoid").Inc()
		},
	}
	e.breath = breath.NewController(breathConfig(cfg), deps)
	e.breath.OnTransition(func(from, to breath.Phase) {
		monitor.PhaseTransitions.WithLabelValues(from.String(), to.String()).Inc()
		monitor.CurrentPhase.Set(float64(to))
		if to == breath.Inspiration {
			monitor.BreathsTotal.Inc()
		}
	})
	e.blender = breath.NewGasBlender(blenderConfig(cfg.Gas), deps)

	e.readings = []reading{
		{name: "p1", sensor: rig.Reservoir, fail: alarm.P1SensorFail},
		{name: "p2", sensor: rig.InspPressure, fail: alarm.P2SensorFail},
		{name: "p3", sensor: rig.ExpPressure, fail: alarm.P3SensorFail},
		{name: "insp_flow", sensor: rig.InspFlow, fail: alarm.None},
		{name: "exp_flow", sensor: rig.ExpFlow, fail: alarm.None},
		{name: "o2", sensor: rig.Oxygen, fail: alarm.O2SensorFail},
	}
	return e, nil
}

func (e *Engine) Panel() *panel.Panel           { return e.panel }
func (e *Engine) Alarms() *alarm.Manager        { return e.alarms }
func (e *Engine) Breath() *breath.Controller    { return e.breath }
func (e *Engine) Flow() *flowcontrol.Controller { return e.flow }
func (e *Engine) Blender() *breath.GasBlender   { return e.blender }
func (e *Engine) Session() string               { return e.session }
func (e *Engine) Ticks() uint64                 { return e.ticks }
func (e *Engine) Period() time.Duration         { return e.period }

// Start applies the resting valve configuration. Call once before the first
// Tick.
func (e *Engine) Start() {
	e.log.Info("Control loop starting",
		"period", e.period,
		"standby", e.panel.Standby(),
		"simulated", e.rig.Plant != nil)
	e.breath.Start()
}

// Tick runs one control period: plant, sensors, alarms, breath cycle, gas.
func (e *Engine) Tick() breath.Phase {
	start := time.Now()

	if e.rig.Plant != nil {
		e.rig.Plant.Step(e.period)
	}
	e.readSensors()
	e.alarms.Maintain()
	phase := e.breath.Update()
	e.blender.Maintain()
	e.ticks++

	elapsed := time.Since(start)
	monitor.TickDuration.Observe(elapsed.Seconds())
	if elapsed > e.period {
		monitor.TickOverruns.Inc()
		e.log.Warn("Control tick overrun", "elapsed", elapsed, "period", e.period)
	}
	return phase
}

func (e *Engine) readSensors() {
	for i := range e.readings {
		r := &e.readings[i]
		if r.sensor == nil {
			continue
		}
		err := r.sensor.Read()
		if err == nil && r.fail == alarm.O2SensorFail {
			err = e.checkOxygen()
		}
		if err != nil {
			monitor.SensorErrors.WithLabelValues(r.name).Inc()
			if !r.faulted {
				e.log.Warn("Sensor fault", "sensor", r.name, "error", err)
			}
			r.faulted = true
			e.alarms.Activate(r.fail)
			continue
		}
		if r.faulted {
			e.log.Info("Sensor recovered", "sensor", r.name)
		}
		r.faulted = false
		e.alarms.Deactivate(r.fail)
	}
}

// checkOxygen rejects concentrations outside 0..100 percent.
func (e *Engine) checkOxygen() error {
	v := e.rig.Oxygen.Get()
	if v < 0 || v > 100 {
		return errImplausible{value: v}
	}
	return nil
}

type errImplausible struct{ value float64 }

func (e errImplausible) Error() string {
	return fmt.Sprintf("implausible oxygen reading %.1f%%", e.value)
}

// Run drives Tick from a ticker until ventilation has stopped after a stop
// signal, or ctx is cancelled. SIGHUP silences alarms. SIGUSR1 requests an
// inspiratory hold on the next breath and SIGUSR2 resumes ventilation from
// standby. The first SIGINT or SIGTERM requests standby so the breath in
// progress completes; a second one forces the circuit to its fail-safe
// state immediately.
func (e *Engine) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	e.Start()
	stopping := false
	for {
		select {
		case <-ctx.Done():
			e.log.Info("Context cancelled. Forcing shutdown.")
			e.breath.Shutdown()
			return ctx.Err()
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				e.log.Info("Signal: SIGHUP received. Silencing alarms.")
				e.alarms.Silence(e.cfg.Timing.SilenceDuration.Std())
			case syscall.SIGUSR1:
				e.log.Info("Signal: SIGUSR1 received. Inspiratory hold requested.")
				e.panel.RequestInspHold()
			case syscall.SIGUSR2:
				if stopping {
					e.log.Warn("Signal: SIGUSR2 ignored while stopping.")
					continue
				}
				e.log.Info("Signal: SIGUSR2 received. Leaving standby.")
				e.panel.SetStandby(false)
			case syscall.SIGINT, syscall.SIGTERM:
				if stopping {
					e.log.Warn("Signal: second stop received. Forcing shutdown.")
					e.breath.Shutdown()
					return nil
				}
				e.log.Info("Signal: Stop received. Finishing current breath.")
				e.panel.SetStandby(true)
				stopping = true
			}
		case <-ticker.C:
			if phase := e.Tick(); stopping && phase == breath.Off {
				e.log.Info("Ventilation stopped. Exiting.", "breaths", e.breath.CycleCount())
				return nil
			}
		}
	}
}

// Close releases the rig.
func (e *Engine) Close() error {
	if e.rig.Close == nil {
		return nil
	}
	return e.rig.Close()
}

// meteredValve mirrors successful drive levels into the valve gauge.
type meteredValve struct {
	flowcontrol.Actuator
}

func (m meteredValve) SetLevel(level float64) error {
	if err := m.Actuator.SetLevel(level); err != nil {
		return err
	}
	monitor.ValveLevel.Set(level)
	return nil
}

func flowConfig(f protocol.FlowControlConfig) flowcontrol.Config {
	return flowcontrol.Config{
		Kp:              f.Kp,
		Ki:              f.Ki,
		Kd:              f.Kd,
		SampleTime:      f.SampleTime.Std(),
		OutputMin:       f.OutputMin,
		OutputMax:       f.OutputMax,
		BurstLevel:      f.BurstLevel,
		BurstSettle:     f.BurstSettle.Std(),
		DefaultPosition: f.DefaultPosition,
		SmoothingWindow: f.SmoothingWindow,
	}
}

func breathConfig(cfg *protocol.Config) breath.Config {
	t, th := cfg.Timing, cfg.Thresholds
	return breath.Config{
		Timing: breath.Timing{
			InspHold:      t.InspHold.Std(),
			MinPeepPause:  t.MinPeepPause.Std(),
			InspTolerance: t.InspTolerance.Std(),
			ExpTolerance:  t.ExpTolerance.Std(),
		},
		Thresholds: breath.Thresholds{
			PlateauMax:              th.PlateauMax,
			PeepSensitivity:         th.PeepSensitivity,
			InspPressureSensitivity: th.InspPressureSensitivity,
			TidalVolumePercent:      th.TidalVolumePercent,
		},
	}
}

func blenderConfig(g protocol.GasConfig) breath.BlenderConfig {
	return breath.BlenderConfig{
		Upper:              g.ReservoirUpper,
		Lower:              g.ReservoirLower,
		InletAlarmPressure: g.InletAlarmPressure,
		InletAlarmDwell:    g.InletAlarmDwell.Std(),
		MixThreshold:       g.MixThreshold,
	}
}

// Personal.AI order the ending
