package sim

import "time"

// Valve is a recording on/off solenoid.
type Valve struct {
	name    string
	open    bool
	toggles int
	err     error
}

func NewValve(name string, open bool) *Valve {
	return &Valve{name: name, open: open}
}

func (v *Valve) Open() error {
	if v.err != nil {
		return v.err
	}
	if !v.open {
		v.toggles++
	}
	v.open = true
	return nil
}

func (v *Valve) Close() error {
	if v.err != nil {
		return v.err
	}
	if v.open {
		v.toggles++
	}
	v.open = false
	return nil
}

func (v *Valve) IsOpen() bool { return v.open }
func (v *Valve) Toggles() int { return v.toggles }
func (v *Valve) Name() string { return v.name }

// Fail makes every command return err and leaves the valve where it is.
// A nil err restores normal operation.
func (v *Valve) Fail(err error) { v.err = err }

// PropValve is a recording proportional valve.
type PropValve struct {
	level  float64
	writes int
	err    error
}

func (p *PropValve) SetLevel(level float64) error {
	if p.err != nil {
		return p.err
	}
	p.level = level
	p.writes++
	return nil
}

func (p *PropValve) Level() float64 { return p.level }
func (p *PropValve) Writes() int    { return p.writes }

func (p *PropValve) Fail(err error) { p.err = err }

// Buzzer records tones.
type Buzzer struct {
	sounding bool
	lastFreq int
	lastDur  time.Duration
	tones    int
}

func (b *Buzzer) Tone(freqHz int, d time.Duration) {
	b.sounding, b.lastFreq, b.lastDur = true, freqHz, d
	b.tones++
}

func (b *Buzzer) Stop() { b.sounding = false }

func (b *Buzzer) Sounding() bool { return b.sounding }
func (b *Buzzer) Tones() int     { return b.tones }

// Last returns the most recent tone.
func (b *Buzzer) Last() (freqHz int, d time.Duration) { return b.lastFreq, b.lastDur }

// Lamp records indicator state.
type Lamp struct {
	on      bool
	changes int
}

func (l *Lamp) Set(on bool) {
	if on != l.on {
		l.changes++
	}
	l.on = on
}

func (l *Lamp) On() bool     { return l.on }
func (l *Lamp) Changes() int { return l.changes }

// Personal.AI order the ending
