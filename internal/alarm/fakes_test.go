package alarm

import "time"

type tone struct {
	freq int
	d    time.Duration
}

type fakeBuzzer struct {
	tones []tone
	stops int
}

func (b *fakeBuzzer) Tone(freq int, d time.Duration) { b.tones = append(b.tones, tone{freq, d}) }
func (b *fakeBuzzer) Stop()                          { b.stops++ }

type fakeLamp struct {
	on      bool
	history []bool
}

func (l *fakeLamp) Set(on bool) {
	l.on = on
	l.history = append(l.history, on)
}

type fakeBanner struct {
	shown   Code
	color   string
	visible bool
}

func (b *fakeBanner) ShowAlarm(c Code, _ string, p Priority) {
	b.shown, b.color, b.visible = c, p.Color(), true
}
func (b *fakeBanner) HideAlarm() { b.visible = false }

type countingObserver struct {
	raised  map[Code]int
	cleared map[Code]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{raised: map[Code]int{}, cleared: map[Code]int{}}
}

func (o *countingObserver) AlarmRaised(c Code)  { o.raised[c]++ }
func (o *countingObserver) AlarmCleared(c Code) { o.cleared[c]++ }
