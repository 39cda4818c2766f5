package breath

import (
	"time"

	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/logger"
)

// BlenderConfig sets the reservoir refill band and the inlet alarm.
type BlenderConfig struct {
	Upper              float64 // cmH2O, stop filling
	Lower              float64 // cmH2O, start filling
	InletAlarmPressure float64 // cmH2O
	InletAlarmDwell    time.Duration
	MixThreshold       int // O2 targets at or above this fill with both gases
}

func DefaultBlenderConfig() BlenderConfig {
	return BlenderConfig{
		Upper:              consts.ReservoirUpper,
		Lower:              consts.ReservoirLower,
		InletAlarmPressure: consts.InletAlarmPressure,
		InletAlarmDwell:    consts.InletAlarmDwell,
		MixThreshold:       consts.O2MixThreshold,
	}
}

// GasBlender keeps the gas reservoir between Lower and Upper by opening the
// air and oxygen supply solenoids according to the O2 setting.
type GasBlender struct {
	cfg      BlenderConfig
	clock    timebase.Clock
	dev      Devices
	settings Settings
	alarms   AlarmSink
	log      logger.Logger

	filling bool
	lowAt   timebase.Deadline

	OnActuatorError func(error)
}

func NewGasBlender(cfg BlenderConfig, d Deps) *GasBlender {
	return &GasBlender{
		cfg:             cfg,
		clock:           d.Clock,
		dev:             d.Devices,
		settings:        d.Settings,
		alarms:          d.Alarms,
		log:             logger.Component(d.Log, "blender"),
		OnActuatorError: d.OnActuatorError,
	}
}

// Filling reports whether a supply solenoid is currently commanded open.
func (b *GasBlender) Filling() bool { return b.filling }

// Maintain runs one tick of reservoir control. Call after the reservoir
// sensor has been read.
func (b *GasBlender) Maintain() {
	if b.dev.Reservoir == nil {
		return
	}
	now := b.clock.Now()
	p := b.dev.Reservoir.Get()

	switch {
	case p <= b.cfg.Lower:
		air, o2 := b.mix(b.settings.O2Target())
		b.set(b.dev.AirValve, "air", air)
		b.set(b.dev.O2Valve, "o2", o2)
		if !b.filling {
			b.log.Debug("Reservoir refill started", "pressure", p)
		}
		b.filling = true
	case p >= b.cfg.Upper:
		b.set(b.dev.AirValve, "air", false)
		b.set(b.dev.O2Valve, "o2", false)
		b.filling = false
	}

	if p < b.cfg.InletAlarmPressure {
		if !b.lowAt.IsSet() {
			b.lowAt.Set(timebase.Add(now, b.cfg.InletAlarmDwell))
		}
		if b.lowAt.Reached(now) {
			b.alarms.Activate(alarm.InletGas)
		}
		return
	}
	b.lowAt.Clear()
	b.alarms.Deactivate(alarm.InletGas)
}

// mix picks the supply solenoids for an O2 target in percent.
func (b *GasBlender) mix(target int) (air, o2 bool) {
	switch {
	case target >= 100:
		return false, true
	case target >= b.cfg.MixThreshold:
		return true, true
	default:
		return true, false
	}
}

func (b *GasBlender) set(v Valve, name string, open bool) {
	if v == nil {
		return
	}
	var err error
	if open {
		err = v.Open()
	} else {
		err = v.Close()
	}
	if err != nil {
		b.log.Error("Supply valve command failed", "valve", name, "open", open, "error", err)
		if b.OnActuatorError != nil {
			b.OnActuatorError(err)
		}
	}
}

// Personal.AI order the ending
