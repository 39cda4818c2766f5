package alarm

// Code enumerates clinical alarm conditions. Lower ordinal means higher
// clinical priority; the order inside a band is fixed here at design time.
type Code int

const (
	Shutdown Code = iota // HIGH
	Apnea
	PowerFail
	InletGas
	InletO2
	BatteryLow
	P1SensorFail
	P2SensorFail
	P3SensorFail
	InspPressureHigh
	PlateauHigh // MEDIUM
	PeepHigh
	PeepLow
	InspPressureLow
	TidalVolumeHigh
	TidalVolumeLow // LOW
	O2SensorFail

	numCodes
)

// None is returned by TopAlarm when no alarm is active.
const None Code = -1

// Last code of each band.
const (
	maxHighCode   = InspPressureHigh
	maxMediumCode = TidalVolumeHigh
	maxLowCode    = O2SensorFail
)

// Priority is a clinical priority band.
type Priority int

const (
	High Priority = iota
	Medium
	Low
	NoAlarm
)

var firstCodeAt = [...]Code{
	High:    Shutdown,
	Medium:  maxHighCode + 1,
	Low:     maxMediumCode + 1,
	NoAlarm: numCodes,
}

var codeNames = [numCodes]string{
	Shutdown:         "shutdown",
	Apnea:            "apnea",
	PowerFail:        "power_fail",
	InletGas:         "inlet_gas",
	InletO2:          "inlet_o2",
	BatteryLow:       "battery_low",
	P1SensorFail:     "p1_sensor_fail",
	P2SensorFail:     "p2_sensor_fail",
	P3SensorFail:     "p3_sensor_fail",
	InspPressureHigh: "insp_pressure_high",
	PlateauHigh:      "plateau_high",
	PeepHigh:         "peep_high",
	PeepLow:          "peep_low",
	InspPressureLow:  "insp_pressure_low",
	TidalVolumeHigh:  "tidal_volume_high",
	TidalVolumeLow:   "tidal_volume_low",
	O2SensorFail:     "o2_sensor_fail",
}

// Banner text shown on the panel for each code.
var codeText = [numCodes]string{
	Shutdown:         "VENTILATION STOPPED",
	Apnea:            "APNEA",
	PowerFail:        "POWER FAILURE",
	InletGas:         "GAS SUPPLY LOW",
	InletO2:          "O2 SUPPLY LOW",
	BatteryLow:       "BATTERY LOW",
	P1SensorFail:     "RESERVOIR SENSOR FAIL",
	P2SensorFail:     "INSP PRESSURE SENSOR FAIL",
	P3SensorFail:     "EXP PRESSURE SENSOR FAIL",
	InspPressureHigh: "HIGH PEAK PRESSURE",
	PlateauHigh:      "HIGH PLATEAU PRESSURE",
	PeepHigh:         "HIGH PEEP",
	PeepLow:          "LOW PEEP",
	InspPressureLow:  "LOW PEAK PRESSURE",
	TidalVolumeHigh:  "HIGH TIDAL VOLUME",
	TidalVolumeLow:   "LOW TIDAL VOLUME",
	O2SensorFail:     "O2 SENSOR FAIL",
}

// Valid reports whether c names a real alarm.
func (c Code) Valid() bool {
	return c >= 0 && c < numCodes
}

func (c Code) String() string {
	if !c.Valid() {
		return "none"
	}
	return codeNames[c]
}

// Text is the banner message for c, or "" for invalid codes.
func (c Code) Text() string {
	if !c.Valid() {
		return ""
	}
	return codeText[c]
}

// Codes returns every valid code in priority order.
func Codes() []Code {
	out := make([]Code, 0, numCodes)
	for c := Shutdown; c < numCodes; c++ {
		out = append(out, c)
	}
	return out
}

// PriorityOf returns the band c belongs to, or NoAlarm for invalid codes.
func PriorityOf(c Code) Priority {
	switch {
	case !c.Valid():
		return NoAlarm
	case c <= maxHighCode:
		return High
	case c <= maxMediumCode:
		return Medium
	case c <= maxLowCode:
		return Low
	default:
		return NoAlarm
	}
}

func (p Priority) valid() bool {
	return p >= High && p < NoAlarm
}

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "none"
	}
}

// Color is the banner color the panel uses for the band.
func (p Priority) Color() string {
	switch p {
	case High:
		return "red"
	case Medium:
		return "yellow"
	case Low:
		return "cyan"
	default:
		return ""
	}
}

// Personal.AI order the ending
