package protocol

// Config represents the root configuration of the ventilator controller.
type Config struct {
	Version       string              `yaml:"version"`
	Service       ServiceConfig       `yaml:"service"`
	Settings      SettingsConfig      `yaml:"settings"`
	Timing        TimingConfig        `yaml:"timing"`
	FlowControl   FlowControlConfig   `yaml:"flow_control"`
	Thresholds    ThresholdsConfig    `yaml:"thresholds"`
	Gas           GasConfig           `yaml:"gas"`
	Hardware      HardwareConfig      `yaml:"hardware"`
	Sim           SimConfig           `yaml:"sim"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServiceConfig struct {
	Name           string   `yaml:"name"`
	LoopPeriod     Duration `yaml:"loop_period"`      // control tick
	StartInStandby bool     `yaml:"start_in_standby"` // boot into Off until released
}

// SettingsConfig seeds the clinician settings at boot.
type SettingsConfig struct {
	TidalVolume float64 `yaml:"tidal_volume"` // cc
	Rate        int     `yaml:"rate"`         // breaths/min
	IERatio     string  `yaml:"ie_ratio"`     // e.g. "1:2"
	O2          int     `yaml:"o2"`           // percent
	Sensitivity float64 `yaml:"sensitivity"`  // cmH2O
}

type TimingConfig struct {
	InspHold        Duration `yaml:"insp_hold"`
	MinPeepPause    Duration `yaml:"min_peep_pause"`
	InspTolerance   Duration `yaml:"insp_tolerance"`
	ExpTolerance    Duration `yaml:"exp_tolerance"`
	SilenceDuration Duration `yaml:"silence_duration"`
}

type FlowControlConfig struct {
	Kp              float64  `yaml:"kp"`
	Ki              float64  `yaml:"ki"`
	Kd              float64  `yaml:"kd"`
	SampleTime      Duration `yaml:"sample_time"`
	OutputMin       float64  `yaml:"output_min"`
	OutputMax       float64  `yaml:"output_max"`
	BurstLevel      float64  `yaml:"burst_level"`
	BurstSettle     Duration `yaml:"burst_settle"`
	DefaultPosition float64  `yaml:"default_position"`
	SmoothingWindow int      `yaml:"smoothing_window"`
}

type ThresholdsConfig struct {
	PlateauMax              float64 `yaml:"plateau_max"`
	PeepSensitivity         float64 `yaml:"peep_sensitivity"`
	InspPressureSensitivity float64 `yaml:"insp_pressure_sensitivity"`
	TidalVolumePercent      float64 `yaml:"tidal_volume_percent"`
}

// GasConfig drives the reservoir blender. Pressures in cmH2O above atmosphere.
type GasConfig struct {
	ReservoirUpper     float64  `yaml:"reservoir_upper"`
	ReservoirLower     float64  `yaml:"reservoir_lower"`
	InletAlarmPressure float64  `yaml:"inlet_alarm_pressure"`
	InletAlarmDwell    Duration `yaml:"inlet_alarm_dwell"`
	MixThreshold       int      `yaml:"mix_threshold"`
}

// HardwareConfig selects the rig. Line offsets refer to Chip.
type HardwareConfig struct {
	Backend string `yaml:"backend"` // sim | gpio
	Chip    string `yaml:"chip"`    // e.g. gpiochip0

	ExpValveLine   int `yaml:"exp_valve_line"`
	AirValveLine   int `yaml:"air_valve_line"`
	O2ValveLine    int `yaml:"o2_valve_line"`
	RedLampLine    int `yaml:"red_lamp_line"`
	YellowLampLine int `yaml:"yellow_lamp_line"`
	BuzzerLine     int `yaml:"buzzer_line"`

	// ExpValveNormallyOpen inverts the drive so an unpowered valve vents.
	ExpValveNormallyOpen bool `yaml:"exp_valve_normally_open"`

	PWMPin       string `yaml:"pwm_pin"`       // periph pin name, e.g. GPIO18
	PWMFrequency int    `yaml:"pwm_frequency"` // Hz
}

// SimConfig parameterizes the test lung used by the sim backend and as the
// sensor source on the bench rig.
type SimConfig struct {
	Compliance     float64  `yaml:"compliance"`       // cc/cmH2O
	Resistance     float64  `yaml:"resistance"`       // cmH2O per L/s
	Peep           float64  `yaml:"peep"`             // cmH2O held by the exhalation valve
	MaxFlow        float64  `yaml:"max_flow"`         // L/min at full valve drive
	CrackLevel     float64  `yaml:"crack_level"`      // valve level below which no gas flows
	ExhaleTau      Duration `yaml:"exhale_tau"`       // passive exhalation time constant
	ReservoirStart float64  `yaml:"reservoir_start"`  // cmH2O
	ReservoirPerCC float64  `yaml:"reservoir_per_cc"` // cmH2O lost per cc delivered
	SupplyFillRate float64  `yaml:"supply_fill_rate"` // cmH2O/ms with a supply valve open
	EffortEvery    Duration `yaml:"effort_every"`     // spontaneous effort period, 0 disables
	EffortDepth    float64  `yaml:"effort_depth"`     // cmH2O drawn below PEEP
}

type ObservabilityConfig struct {
	MetricsPort string `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json | console
}

// Personal.AI order the ending
