package breath

import (
	"github.com/turtacn/Anima/internal/timebase"
)

type fakeFlow struct {
	rate     float64
	volume   float64
	resetAt  timebase.Millis
	resets   int
	volumeAt func(elapsed timebase.Millis) float64
}

func (f *fakeFlow) Read() error  { return nil }
func (f *fakeFlow) Get() float64 { return f.rate }
func (f *fakeFlow) ResetVolume(now timebase.Millis) {
	f.volume, f.resetAt = 0, now
	f.resets++
}
func (f *fakeFlow) IntegrateVolume(now timebase.Millis) {
	if f.volumeAt != nil {
		f.volume = f.volumeAt(timebase.Since(now, f.resetAt))
	}
}
func (f *fakeFlow) Volume() float64 { return f.volume }

type fakePressure struct {
	cur, peak, plateau, peep float64
}

func (p *fakePressure) Read() error      { return nil }
func (p *fakePressure) Get() float64     { return p.cur }
func (p *fakePressure) Peak() float64    { return p.peak }
func (p *fakePressure) SetPeakAndReset() { p.peak = p.cur }
func (p *fakePressure) Plateau() float64 { return p.plateau }
func (p *fakePressure) SetPlateau()      { p.plateau = p.cur }
func (p *fakePressure) Peep() float64    { return p.peep }
func (p *fakePressure) SetPeep()         { p.peep = p.cur }

type fakeValve struct {
	open   bool
	opens  int
	closes int
	err    error
}

func (v *fakeValve) Open() error {
	v.open = true
	v.opens++
	return v.err
}

func (v *fakeValve) Close() error {
	v.open = false
	v.closes++
	return v.err
}

type fakeFlowCtl struct {
	active    bool
	setpoints []float64
	maintains int
	ends      int
}

func (f *fakeFlowCtl) BeginBreath(_ timebase.Millis, sp float64) {
	f.active = true
	f.setpoints = append(f.setpoints, sp)
}
func (f *fakeFlowCtl) MaintainBreath(timebase.Millis, float64) { f.maintains++ }
func (f *fakeFlowCtl) EndBreath() {
	f.active = false
	f.ends++
}

type fakeSettings struct {
	tidal       float64
	rate        int
	ieInsp      int
	ieExp       int
	o2          int
	sensitivity float64
	hold        bool
	holdResets  int
	standby     bool
}

func defaultSettings() *fakeSettings {
	return &fakeSettings{tidal: 400, rate: 20, ieInsp: 1, ieExp: 2, o2: 21, sensitivity: 0.5}
}

func (s *fakeSettings) TidalVolume() float64     { return s.tidal }
func (s *fakeSettings) Rate() int                { return s.rate }
func (s *fakeSettings) IERatio() (insp, exp int) { return s.ieInsp, s.ieExp }
func (s *fakeSettings) O2Target() int            { return s.o2 }
func (s *fakeSettings) Sensitivity() float64     { return s.sensitivity }
func (s *fakeSettings) InspHold() bool           { return s.hold }
func (s *fakeSettings) Standby() bool            { return s.standby }
func (s *fakeSettings) ResetInspHold() {
	s.hold = false
	s.holdResets++
}

type fakeTelemetry struct {
	flowWaves, pressureWaves int
	lastFlowWave             float64

	peak, plateau, peep float64
	vti, vte, minute    float64
	rate, fio2          float64
	breaths             int
}

func (t *fakeTelemetry) UpdateFlowWave(v float64) {
	t.flowWaves++
	t.lastFlowWave = v
}
func (t *fakeTelemetry) UpdatePressureWave(float64)  { t.pressureWaves++ }
func (t *fakeTelemetry) WritePeak(v float64)         { t.peak = v }
func (t *fakeTelemetry) WritePlateau(v float64)      { t.plateau = v }
func (t *fakeTelemetry) WritePeep(v float64)         { t.peep = v }
func (t *fakeTelemetry) WriteVolumeInsp(v float64)   { t.vti = v }
func (t *fakeTelemetry) WriteVolumeExp(v float64)    { t.vte = v }
func (t *fakeTelemetry) WriteMinuteVolume(v float64) { t.minute = v }
func (t *fakeTelemetry) WriteRate(v float64) {
	t.rate = v
	t.breaths++
}
func (t *fakeTelemetry) WriteFiO2(v float64) { t.fio2 = v }
