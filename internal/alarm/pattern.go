package alarm

import "time"

// tonePattern is the audible sequence for one priority band. Each entry of
// gaps is the delay from the start of one beep to the next; the phase counter
// wraps at len(gaps).
type tonePattern struct {
	freqHz int
	beep   time.Duration
	gaps   []time.Duration
	// once patterns sound a single tone and then fall silent until retriggered
	once bool
}

// HIGH: beep beep beep rest beep beep rest rest rest rest, twice, on a 125 ms
// beat, followed by a long rest. MEDIUM: three beeps then a long rest.
// LOW: one long tone.
var tonePatterns = [...]tonePattern{
	High: {
		freqHz: 880,
		beep:   75 * time.Millisecond,
		gaps: []time.Duration{
			125 * time.Millisecond, 125 * time.Millisecond, 250 * time.Millisecond,
			125 * time.Millisecond, 625 * time.Millisecond,
			125 * time.Millisecond, 125 * time.Millisecond, 250 * time.Millisecond,
			125 * time.Millisecond, 6125 * time.Millisecond,
		},
	},
	Medium: {
		freqHz: 660,
		beep:   150 * time.Millisecond,
		gaps:   []time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 12250 * time.Millisecond},
	},
	Low: {
		freqHz: 440,
		beep:   2000 * time.Millisecond,
		once:   true,
	},
}

const (
	blinkStep   = 250 * time.Millisecond
	blinkPhases = 10
)

// redLampOn: 2 Hz blink while any HIGH alarm is on.
func redLampOn(highOn bool, phase int) bool {
	return highOn && phase%2 == 0
}

// yellowLampOn: 0.8 Hz blink for MEDIUM, steady for LOW.
func yellowLampOn(mediumOn, lowOn bool, phase int) bool {
	switch {
	case mediumOn:
		return phase%5 < 3
	case lowOn:
		return true
	default:
		return false
	}
}

// Personal.AI order the ending
