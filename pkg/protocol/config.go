package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/Anima/pkg/consts"
	aerrors "github.com/turtacn/Anima/pkg/errors"
)

// Duration is a time.Duration written in configs as a string ("30ms", "2m").
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default returns a configuration that validates and runs the simulated rig.
func Default() *Config {
	return &Config{
		Version: "1",
		Service: ServiceConfig{
			Name:       "anima",
			LoopPeriod: Duration(consts.LoopPeriod),
		},
		Settings: SettingsConfig{
			TidalVolume: consts.DefaultTidalVolume,
			Rate:        consts.DefaultRate,
			IERatio:     fmt.Sprintf("%d:%d", consts.DefaultIEInsp, consts.DefaultIEExp),
			O2:          consts.DefaultO2,
			Sensitivity: consts.DefaultSensitivity,
		},
		Timing: TimingConfig{
			InspHold:        Duration(consts.HoldInspDuration),
			MinPeepPause:    Duration(consts.MinPeepPause),
			InspTolerance:   Duration(consts.InspTimeTolerance),
			ExpTolerance:    Duration(consts.ExpTimeTolerance),
			SilenceDuration: Duration(consts.SilenceDuration),
		},
		FlowControl: FlowControlConfig{
			Kp:              consts.VKP,
			Ki:              consts.VKI,
			Kd:              consts.VKD,
			SampleTime:      Duration(consts.PIDSampleTime),
			OutputMin:       consts.OutputMin,
			OutputMax:       consts.OutputMax,
			BurstLevel:      consts.BurstLevel,
			BurstSettle:     Duration(consts.BurstSettle),
			DefaultPosition: consts.DefaultValvePosition,
			SmoothingWindow: consts.SmoothingWindow,
		},
		Thresholds: ThresholdsConfig{
			PlateauMax:              consts.PlateauMax,
			PeepSensitivity:         consts.PeepSensitivity,
			InspPressureSensitivity: consts.InspPressureSensitivity,
			TidalVolumePercent:      consts.TidalVolumeSensitivity,
		},
		Gas: GasConfig{
			ReservoirUpper:     consts.ReservoirUpper,
			ReservoirLower:     consts.ReservoirLower,
			InletAlarmPressure: consts.InletAlarmPressure,
			InletAlarmDwell:    Duration(consts.InletAlarmDwell),
			MixThreshold:       consts.O2MixThreshold,
		},
		Hardware: HardwareConfig{
			Backend:              string(consts.BackendSim),
			Chip:                 "gpiochip0",
			ExpValveLine:         26,
			AirValveLine:         22,
			O2ValveLine:          24,
			RedLampLine:          16,
			YellowLampLine:       20,
			BuzzerLine:           21,
			ExpValveNormallyOpen: true,
			PWMPin:               "GPIO18",
			PWMFrequency:         1000,
		},
		Sim: SimConfig{
			Compliance:     50,
			Resistance:     20,
			Peep:           5,
			MaxFlow:        120,
			CrackLevel:     30,
			ExhaleTau:      Duration(50 * time.Millisecond),
			ReservoirStart: 1500,
			ReservoirPerCC: 0.5,
			SupplyFillRate: 2,
			EffortDepth:    2,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, aerrors.New(aerrors.ErrCodeConfigRead, "load config", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, aerrors.New(aerrors.ErrCodeConfigInvalid, "parse config", "malformed yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseIERatio parses "insp:exp".
func ParseIERatio(s string) (insp, exp int, err error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("ie ratio %q: want insp:exp", s)
	}
	if insp, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("ie ratio %q: %w", s, err)
	}
	if exp, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, fmt.Errorf("ie ratio %q: %w", s, err)
	}
	return insp, exp, nil
}

// Validate checks the whole configuration. Clinician settings outside their
// limits fail with ErrCodeSettingsOutOfRange, anything else with
// ErrCodeConfigInvalid.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}

	invalid := func(msg string, args ...any) error {
		return aerrors.New(aerrors.ErrCodeConfigInvalid, "validate config", fmt.Sprintf(msg, args...), nil)
	}

	if c.Service.LoopPeriod <= 0 {
		return invalid("service.loop_period must be positive")
	}
	t := c.Timing
	for name, d := range map[string]Duration{
		"timing.insp_hold":      t.InspHold,
		"timing.min_peep_pause": t.MinPeepPause,
		"timing.insp_tolerance": t.InspTolerance,
		"timing.exp_tolerance":  t.ExpTolerance,
	} {
		if d < 0 {
			return invalid("%s must not be negative", name)
		}
	}

	f := c.FlowControl
	if f.SampleTime <= 0 {
		return invalid("flow_control.sample_time must be positive")
	}
	if f.OutputMin >= f.OutputMax {
		return invalid("flow_control.output_min %.1f must be below output_max %.1f", f.OutputMin, f.OutputMax)
	}
	if f.OutputMax > consts.ValveLevelMax || f.BurstLevel > consts.ValveLevelMax {
		return invalid("flow_control levels must not exceed %.0f", consts.ValveLevelMax)
	}
	if f.Kp < 0 || f.Ki < 0 || f.Kd < 0 {
		return invalid("flow_control gains must not be negative")
	}
	if f.SmoothingWindow < 1 {
		return invalid("flow_control.smoothing_window must be at least 1")
	}

	g := c.Gas
	if g.ReservoirLower >= g.ReservoirUpper {
		return invalid("gas.reservoir_lower %.1f must be below reservoir_upper %.1f", g.ReservoirLower, g.ReservoirUpper)
	}

	switch consts.Backend(c.Hardware.Backend) {
	case consts.BackendSim:
	case consts.BackendGPIO:
		if c.Hardware.Chip == "" {
			return invalid("hardware.chip is required for the gpio backend")
		}
		if c.Hardware.PWMFrequency <= 0 {
			return invalid("hardware.pwm_frequency must be positive")
		}
	default:
		return invalid("hardware.backend %q is not one of sim, gpio", c.Hardware.Backend)
	}

	switch c.Observability.LogFormat {
	case "", "json", "console":
	default:
		return invalid("observability.log_format %q is not one of json, console", c.Observability.LogFormat)
	}

	s := c.Sim
	if s.Compliance <= 0 || s.MaxFlow <= 0 || s.ExhaleTau <= 0 {
		return invalid("sim.compliance, sim.max_flow and sim.exhale_tau must be positive")
	}
	return nil
}

// Validate checks the clinician settings against their limits.
func (s SettingsConfig) Validate() error {
	out := func(msg string, args ...any) error {
		return aerrors.New(aerrors.ErrCodeSettingsOutOfRange, "validate settings", fmt.Sprintf(msg, args...), nil)
	}
	if s.TidalVolume < consts.MinTidal || s.TidalVolume > consts.MaxTidal {
		return out("tidal_volume %.0f outside %.0f..%.0f cc", s.TidalVolume, consts.MinTidal, consts.MaxTidal)
	}
	if s.Rate < consts.MinRate || s.Rate > consts.MaxRate {
		return out("rate %d outside %d..%d", s.Rate, consts.MinRate, consts.MaxRate)
	}
	if s.O2 < consts.MinO2 || s.O2 > consts.MaxO2 {
		return out("o2 %d outside %d..%d%%", s.O2, consts.MinO2, consts.MaxO2)
	}
	if s.Sensitivity < 0 || s.Sensitivity > consts.MaxSensitivity {
		return out("sensitivity %.2f outside 0..%.1f", s.Sensitivity, consts.MaxSensitivity)
	}
	insp, exp, err := ParseIERatio(s.IERatio)
	if err != nil {
		return aerrors.New(aerrors.ErrCodeSettingsOutOfRange, "validate settings", "bad ie_ratio", err)
	}
	if insp < consts.MinIEPart || insp > consts.MaxIEPart || exp < consts.MinIEPart || exp > consts.MaxIEPart {
		return out("ie_ratio %s parts outside %d..%d", s.IERatio, consts.MinIEPart, consts.MaxIEPart)
	}
	return nil
}

// Personal.AI order the ending
