package alarm

import "time"

// Buzzer produces audible alarm tones.
type Buzzer interface {
	Tone(freqHz int, d time.Duration)
	Stop()
}

// Lamp is a single alarm indicator LED.
type Lamp interface {
	Set(on bool)
}

// Annunciator shows the current top alarm on the operator panel.
type Annunciator interface {
	ShowAlarm(code Code, text string, p Priority)
	HideAlarm()
}

// Observer is told about every alarm state change.
type Observer interface {
	AlarmRaised(c Code)
	AlarmCleared(c Code)
}

// Outputs bundles the devices the manager drives. Nil members are ignored.
type Outputs struct {
	Buzzer Buzzer
	Red    Lamp // HIGH priority
	Yellow Lamp // MEDIUM and LOW priority
	Banner Annunciator
}

type nopBuzzer struct{}

func (nopBuzzer) Tone(int, time.Duration) {}
func (nopBuzzer) Stop()                   {}

type nopLamp struct{}

func (nopLamp) Set(bool) {}

type nopBanner struct{}

func (nopBanner) ShowAlarm(Code, string, Priority) {}
func (nopBanner) HideAlarm()                       {}

func (o Outputs) withDefaults() Outputs {
	if o.Buzzer == nil {
		o.Buzzer = nopBuzzer{}
	}
	if o.Red == nil {
		o.Red = nopLamp{}
	}
	if o.Yellow == nil {
		o.Yellow = nopLamp{}
	}
	if o.Banner == nil {
		o.Banner = nopBanner{}
	}
	return o
}

// Personal.AI order the ending
