// Package panel is the operator display collaborator. It holds the clinician
// settings, receives live telemetry and shows the alarm banner. Telemetry is
// mirrored to Prometheus gauges.
package panel

import (
	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/monitor"
	"github.com/turtacn/Anima/pkg/logger"
	"github.com/turtacn/Anima/pkg/protocol"
)

// Banner is the alarm line of the display.
type Banner struct {
	Visible  bool
	Code     alarm.Code
	Text     string
	Priority alarm.Priority
	Color    string
}

// Readout is a snapshot of everything the display shows.
type Readout struct {
	Settings protocol.SettingsConfig
	Standby  bool
	InspHold bool

	Peak         float64 // cmH2O
	Plateau      float64 // cmH2O
	Peep         float64 // cmH2O
	VolumeInsp   float64 // cc
	VolumeExp    float64 // cc
	MinuteVolume float64 // L/min
	Rate         float64 // breaths/min, measured
	FiO2         float64 // percent

	Flow     float64 // L/min, last waveform sample
	Pressure float64 // cmH2O, last waveform sample

	Banner Banner
}

// Panel is owned by the control loop and must not be shared across
// goroutines.
type Panel struct {
	log logger.Logger

	settings protocol.SettingsConfig
	ieInsp   int
	ieExp    int
	standby  bool
	inspHold bool

	r Readout
}

// New seeds the panel from validated settings.
func New(s protocol.SettingsConfig, standby bool, log logger.Logger) (*Panel, error) {
	p := &Panel{log: logger.Component(log, "panel"), standby: standby}
	if err := p.Apply(s); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply replaces the settings. Invalid settings are rejected and the current
// ones kept. The change takes effect at the next breath.
func (p *Panel) Apply(s protocol.SettingsConfig) error {
	if err := s.Validate(); err != nil {
		p.log.Warn("Settings rejected", "error", err)
		return err
	}
	insp, exp, _ := protocol.ParseIERatio(s.IERatio)
	p.settings, p.ieInsp, p.ieExp = s, insp, exp
	p.log.Info("Settings applied",
		"tidal_volume", s.TidalVolume,
		"rate", s.Rate,
		"ie_ratio", s.IERatio,
		"o2", s.O2,
		"sensitivity", s.Sensitivity)
	return nil
}

func (p *Panel) Current() protocol.SettingsConfig { return p.settings }

// SetStandby requests (true) or releases (false) standby. The breath cycle
// honors a request at the end of the current breath.
func (p *Panel) SetStandby(on bool) {
	if on != p.standby {
		p.log.Info("Standby changed", "standby", on)
	}
	p.standby = on
}

// RequestInspHold asks for a plateau measurement on the next inspiration.
func (p *Panel) RequestInspHold() { p.inspHold = true }

func (p *Panel) TidalVolume() float64     { return p.settings.TidalVolume }
func (p *Panel) Rate() int                { return p.settings.Rate }
func (p *Panel) IERatio() (insp, exp int) { return p.ieInsp, p.ieExp }
func (p *Panel) O2Target() int            { return p.settings.O2 }
func (p *Panel) Sensitivity() float64     { return p.settings.Sensitivity }
func (p *Panel) InspHold() bool           { return p.inspHold }
func (p *Panel) ResetInspHold()           { p.inspHold = false }
func (p *Panel) Standby() bool            { return p.standby }

func (p *Panel) UpdateFlowWave(lpm float64) {
	p.r.Flow = lpm
	monitor.Waveform.WithLabelValues("flow").Set(lpm)
}

func (p *Panel) UpdatePressureWave(cmH2O float64) {
	p.r.Pressure = cmH2O
	monitor.Waveform.WithLabelValues("pressure").Set(cmH2O)
}

func (p *Panel) WritePeak(v float64)         { p.measure(&p.r.Peak, "peak", v) }
func (p *Panel) WritePlateau(v float64)      { p.measure(&p.r.Plateau, "plateau", v) }
func (p *Panel) WritePeep(v float64)         { p.measure(&p.r.Peep, "peep", v) }
func (p *Panel) WriteVolumeInsp(v float64)   { p.measure(&p.r.VolumeInsp, "volume_insp", v) }
func (p *Panel) WriteVolumeExp(v float64)    { p.measure(&p.r.VolumeExp, "volume_exp", v) }
func (p *Panel) WriteMinuteVolume(v float64) { p.measure(&p.r.MinuteVolume, "minute_volume", v) }
func (p *Panel) WriteRate(v float64)         { p.measure(&p.r.Rate, "rate", v) }
func (p *Panel) WriteFiO2(v float64)         { p.measure(&p.r.FiO2, "fio2", v) }

func (p *Panel) measure(field *float64, name string, v float64) {
	*field = v
	monitor.Measured.WithLabelValues(name).Set(v)
}

// ShowAlarm puts c on the banner.
func (p *Panel) ShowAlarm(c alarm.Code, text string, pr alarm.Priority) {
	p.r.Banner = Banner{Visible: true, Code: c, Text: text, Priority: pr, Color: pr.Color()}
}

func (p *Panel) HideAlarm() {
	p.r.Banner = Banner{Code: alarm.None, Priority: alarm.NoAlarm}
}

// Readout returns what the display currently shows.
func (p *Panel) Readout() Readout {
	r := p.r
	r.Settings = p.settings
	r.Standby = p.standby
	r.InspHold = p.inspHold
	return r
}

// Personal.AI order the ending
