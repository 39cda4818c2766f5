package consts

import "time"

// Backend selects which device rig the control loop drives.
type Backend string

const (
	BackendSim  Backend = "sim"  // Simulated test lung and actuators
	BackendGPIO Backend = "gpio" // gpiocdev solenoids/annunciators + periph PWM valve
)

// Control loop and breath timing defaults.
const (
	LoopPeriod         = 30 * time.Millisecond
	HoldInspDuration   = 500 * time.Millisecond // pause after inhalation for plateau
	MinPeepPause       = 50 * time.Millisecond  // pause after exhalation before watching for a trigger
	InspTimeTolerance  = 400 * time.Millisecond // wiggle room to reach tidal volume
	ExpTimeTolerance   = 400 * time.Millisecond // wiggle room to exhale 80% of the inspired volume
	SilenceDuration    = 2 * time.Minute
	InspDurationMargin = 1.05 // extra time allowed to complete inspiration
	ExpVolumeFraction  = 0.8  // expiration ends once this share of VTi is exhaled
)

// Default clinician settings.
const (
	DefaultRate          = 20    // breaths/min
	DefaultO2            = 21    // percent
	DefaultIEInsp        = 1     // inspiratory portion of I:E
	DefaultIEExp         = 2     // expiratory portion of I:E
	DefaultTidalVolume   = 400.0 // cc
	DefaultSensitivity   = 0.5   // cmH2O below PEEP that counts as a patient trigger
	MinRate, MaxRate     = 6, 40
	MinTidal, MaxTidal   = 100.0, 1000.0
	MinO2, MaxO2         = 21, 100
	MaxSensitivity       = 5.0
	MinIEPart, MaxIEPart = 1, 4
)

// Alarm thresholds.
const (
	PlateauMax              = 33.0 // cmH2O
	PeepSensitivity         = 3.0  // cmH2O
	InspPressureSensitivity = 7.0  // cmH2O
	TidalVolumeSensitivity  = 10.0 // percent of set tidal volume
)

// Inspiratory PID defaults. Gains were tuned on the prototype rig.
const (
	VKP                  = 0.225
	VKI                  = 1.08
	VKD                  = 0.0
	OutputMin            = 40.0
	OutputMax            = 120.0
	BurstLevel           = 255.0 // full-open unstick pulse
	DefaultValvePosition = 80.0
	PIDSampleTime        = 50 * time.Millisecond
	BurstSettle          = 60 * time.Millisecond
	SmoothingWindow      = 4
	ValveLevelMax        = 255.0 // drive level that maps to 100% duty
)

// Reservoir (gas blender) thresholds, cmH2O above atmosphere.
const (
	ReservoirUpper     = 1756.67 // 25 psi
	ReservoirLower     = 703.07  // 10 psi
	InletAlarmPressure = 500.0
	InletAlarmDwell    = 2 * time.Second
	O2MixThreshold     = 50 // targets at or above this open both gases
)

// Unit conversions. Liters per minute to cc per ms refers to actual liters, not SLPM.
const (
	LPMToCCPerMS = 1000.0 / 60000.0
	CCPerMSToLPM = 60000.0 / 1000.0
	ATMInCmH2O   = 1033.23
)

// Personal.AI order the ending
