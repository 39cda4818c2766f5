package breath

import (
	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/timebase"
)

// FlowSensor reports flow in L/min and accumulates volume in cc.
type FlowSensor interface {
	Read() error
	Get() float64
	ResetVolume(now timebase.Millis)
	IntegrateVolume(now timebase.Millis)
	Volume() float64
}

// PressureSensor reports pressure in cmH2O and latches peak, plateau and PEEP.
type PressureSensor interface {
	Read() error
	Get() float64
	Peak() float64
	SetPeakAndReset()
	Plateau() float64
	SetPlateau()
	Peep() float64
	SetPeep()
}

// OxygenSensor reports oxygen concentration in percent.
type OxygenSensor interface {
	Read() error
	Get() float64
}

// Valve is an on/off solenoid. The driver owns the normally-open convention.
type Valve interface {
	Open() error
	Close() error
}

// FlowController drives the inspiratory proportional valve.
type FlowController interface {
	BeginBreath(now timebase.Millis, setpointLPM float64)
	MaintainBreath(now timebase.Millis, flowLPM float64)
	EndBreath()
}

// Settings is the clinician-set parameter source (the operator panel).
type Settings interface {
	TidalVolume() float64 // cc
	Rate() int            // breaths/min
	IERatio() (insp, exp int)
	O2Target() int        // percent
	Sensitivity() float64 // cmH2O below PEEP that triggers a breath
	InspHold() bool
	ResetInspHold()
	Standby() bool
}

// Telemetry receives live waveforms and per-breath measurements. Calls must
// not block.
type Telemetry interface {
	UpdateFlowWave(lpm float64)
	UpdatePressureWave(cmH2O float64)
	WritePeak(cmH2O float64)
	WritePlateau(cmH2O float64)
	WritePeep(cmH2O float64)
	WriteVolumeInsp(cc float64)
	WriteVolumeExp(cc float64)
	WriteMinuteVolume(lpm float64)
	WriteRate(bpm float64)
	WriteFiO2(percent float64)
}

// AlarmSink is the part of the alarm manager the breath cycle uses.
type AlarmSink interface {
	Activate(c alarm.Code)
	Deactivate(c alarm.Code)
	IsActive(c alarm.Code) bool
}

// Devices are the sensors and solenoids wired to the breathing circuit.
type Devices struct {
	InspFlow     FlowSensor
	ExpFlow      FlowSensor
	InspPressure PressureSensor
	ExpPressure  PressureSensor
	Reservoir    PressureSensor
	Oxygen       OxygenSensor

	ExpValve Valve
	AirValve Valve
	O2Valve  Valve
}

// Personal.AI order the ending
