package alarm

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/logger"
)

type rig struct {
	clock  *timebase.ManualClock
	buzzer *fakeBuzzer
	red    *fakeLamp
	yellow *fakeLamp
	banner *fakeBanner
	mgr    *Manager
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		clock:  timebase.NewManualClock(1000),
		buzzer: &fakeBuzzer{},
		red:    &fakeLamp{},
		yellow: &fakeLamp{},
		banner: &fakeBanner{},
	}
	r.mgr = NewManager(r.clock, Outputs{Buzzer: r.buzzer, Red: r.red, Yellow: r.yellow, Banner: r.banner}, logger.Nop())
	return r
}

// tickFor runs Maintain every 10 ms for d.
func (r *rig) tickFor(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 10 * time.Millisecond {
		r.mgr.Maintain()
		r.clock.Advance(10 * time.Millisecond)
	}
}

func TestPriorityBands(t *testing.T) {
	assert.Equal(t, High, PriorityOf(Shutdown))
	assert.Equal(t, High, PriorityOf(InspPressureHigh))
	assert.Equal(t, Medium, PriorityOf(PlateauHigh))
	assert.Equal(t, Medium, PriorityOf(TidalVolumeHigh))
	assert.Equal(t, Low, PriorityOf(TidalVolumeLow))
	assert.Equal(t, Low, PriorityOf(O2SensorFail))
	assert.Equal(t, NoAlarm, PriorityOf(None))
	assert.Equal(t, NoAlarm, PriorityOf(numCodes))

	// bands are contiguous and ordered
	prev := High
	for _, c := range Codes() {
		p := PriorityOf(c)
		assert.GreaterOrEqual(t, p, prev, "code %s", c)
		prev = p
	}
}

func TestTopAlarm_HigherPriorityAlwaysWins(t *testing.T) {
	for _, a := range Codes() {
		for _, b := range Codes() {
			if a >= b {
				continue
			}
			r := newRig(t)
			// activation order must not matter
			r.mgr.Activate(b)
			r.mgr.Activate(a)
			assert.Equal(t, a, r.mgr.TopAlarm(), "a=%s b=%s", a, b)

			r2 := newRig(t)
			r2.mgr.Activate(a)
			r2.mgr.Activate(b)
			assert.Equal(t, a, r2.mgr.TopAlarm(), "a=%s b=%s", a, b)
		}
	}
}

func TestTopAlarm_NoneWhenIdle(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, None, r.mgr.TopAlarm())
	assert.False(t, r.mgr.IsSilenced())
	assert.False(t, r.mgr.Sounding())
	assert.False(t, r.mgr.LEDOn())
}

func TestActivateDeactivate_RestoresIdleFlags(t *testing.T) {
	for _, c := range Codes() {
		r := newRig(t)
		r.mgr.Activate(c)
		assert.True(t, r.mgr.IsActive(c))
		assert.True(t, r.mgr.LEDOn())

		r.mgr.Deactivate(c)
		assert.False(t, r.mgr.IsActive(c), "code %s", c)
		assert.False(t, r.mgr.Sounding(), "code %s", c)
		assert.False(t, r.mgr.LEDOn(), "code %s", c)
		assert.False(t, r.banner.visible, "code %s", c)
	}
}

func TestActivate_IdempotentAndInvalidIgnored(t *testing.T) {
	r := newRig(t)
	obs := newCountingObserver()
	r.mgr.AddObserver(obs)

	r.mgr.Activate(PeepLow)
	r.mgr.Activate(PeepLow)
	assert.Equal(t, 1, obs.raised[PeepLow])

	r.mgr.Activate(None)
	r.mgr.Activate(numCodes)
	r.mgr.Activate(Code(99))
	assert.Equal(t, PeepLow, r.mgr.TopAlarm())
	assert.False(t, r.mgr.IsActive(Code(99)))
	assert.False(t, r.mgr.IsActive(None))

	r.mgr.Deactivate(Code(99))
	r.mgr.Deactivate(TidalVolumeLow) // not active
	assert.Empty(t, obs.cleared)
	assert.True(t, r.mgr.IsActive(PeepLow))
}

func TestOnPriority(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(TidalVolumeLow)
	assert.True(t, r.mgr.OnPriority(Low))
	assert.False(t, r.mgr.OnPriority(Medium))
	assert.False(t, r.mgr.OnPriority(High))
	assert.False(t, r.mgr.OnPriority(NoAlarm))
	assert.False(t, r.mgr.OnPriority(Priority(-1)))

	r.mgr.Activate(P2SensorFail)
	assert.True(t, r.mgr.OnPriority(High))
}

func TestSilence_HigherPriorityActivationRearmsEarly(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(TidalVolumeHigh)
	r.mgr.Silence(2 * time.Minute)
	require.True(t, r.mgr.IsSilenced())
	assert.True(t, r.mgr.LEDOn(), "silence leaves the lamps on")

	r.clock.Advance(time.Second)
	r.mgr.Activate(Apnea)
	assert.False(t, r.mgr.IsSilenced())
	assert.True(t, r.mgr.Sounding())
	assert.Equal(t, Apnea, r.banner.shown)
	assert.Equal(t, "red", r.banner.color)
}

func TestSilence_LowerPriorityActivationStaysSilent(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(PowerFail)
	r.mgr.Silence(time.Minute)
	r.mgr.Activate(O2SensorFail)
	assert.True(t, r.mgr.IsSilenced())
	assert.Equal(t, PowerFail, r.banner.shown)
}

func TestSilence_AutomaticRearm(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(PeepHigh)
	r.mgr.Silence(500 * time.Millisecond)

	r.tickFor(400 * time.Millisecond)
	assert.True(t, r.mgr.IsSilenced())

	r.tickFor(200 * time.Millisecond)
	assert.False(t, r.mgr.IsSilenced())
	assert.True(t, r.mgr.Sounding())
}

func TestSilence_WithoutAlarmsDoesNotRearm(t *testing.T) {
	r := newRig(t)
	r.mgr.Silence(100 * time.Millisecond)
	r.tickFor(300 * time.Millisecond)
	assert.False(t, r.mgr.Sounding())
	assert.False(t, r.mgr.IsSilenced())
	assert.Empty(t, r.buzzer.tones)
}

func TestDeactivate_LowerPriorityTakesOverFromPhaseZero(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(TidalVolumeHigh)
	r.mgr.Activate(InletGas)
	r.tickFor(300 * time.Millisecond) // run part of the HIGH burst
	require.NotEmpty(t, r.buzzer.tones)
	assert.Equal(t, 880, r.buzzer.tones[len(r.buzzer.tones)-1].freq)

	r.buzzer.tones = nil
	r.mgr.Deactivate(InletGas)
	assert.False(t, r.red.on, "vacated HIGH lamp is quelled")
	assert.Equal(t, TidalVolumeHigh, r.banner.shown)

	r.mgr.Maintain()
	require.Len(t, r.buzzer.tones, 1, "MEDIUM pattern starts immediately")
	assert.Equal(t, tone{660, 150 * time.Millisecond}, r.buzzer.tones[0])
}

func TestDeactivate_HigherPriorityContinues(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(Shutdown)
	r.mgr.Activate(PeepLow)
	r.mgr.Silence(time.Minute)

	r.mgr.Deactivate(PeepLow)
	assert.True(t, r.mgr.IsSilenced(), "silence of the remaining top alarm is kept")
	assert.Equal(t, Shutdown, r.banner.shown)
}

func TestHighPattern_BurstThenRest(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(Shutdown)

	r.tickFor(2 * time.Second)
	require.Len(t, r.buzzer.tones, 10, "one ten-beep burst")
	for _, tn := range r.buzzer.tones {
		assert.Equal(t, tone{880, 75 * time.Millisecond}, tn)
	}

	r.tickFor(5 * time.Second)
	assert.Len(t, r.buzzer.tones, 10, "rest after the burst")

	r.tickFor(1500 * time.Millisecond)
	assert.Greater(t, len(r.buzzer.tones), 10, "burst repeats")
}

func TestMediumPattern_ThreeBeepsThenSilence(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(PlateauHigh)

	r.tickFor(time.Second)
	assert.Len(t, r.buzzer.tones, 3)

	r.tickFor(10 * time.Second)
	assert.Len(t, r.buzzer.tones, 3)

	r.tickFor(2 * time.Second)
	assert.Len(t, r.buzzer.tones, 4)
}

func TestLowPattern_SingleToneThenSilent(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(TidalVolumeLow)

	r.tickFor(30 * time.Second)
	require.Len(t, r.buzzer.tones, 1)
	assert.Equal(t, tone{440, 2 * time.Second}, r.buzzer.tones[0])
	assert.False(t, r.mgr.Sounding())
	// audio is off but the alarm is on, which reads as silenced
	assert.True(t, r.mgr.IsSilenced())
	assert.True(t, r.yellow.on, "LOW keeps the yellow lamp steady")
	for _, v := range r.yellow.history {
		assert.True(t, v)
	}
}

func TestLamps_HighBlinksFasterThanMedium(t *testing.T) {
	count := func(h []bool) int {
		n := 0
		for i := 1; i < len(h); i++ {
			if h[i] != h[i-1] {
				n++
			}
		}
		return n
	}

	hr := newRig(t)
	hr.mgr.Activate(Apnea)
	hr.tickFor(5 * time.Second)

	mr := newRig(t)
	mr.mgr.Activate(PeepHigh)
	mr.tickFor(5 * time.Second)

	assert.Greater(t, count(hr.red.history), count(mr.yellow.history))
	assert.Greater(t, count(mr.yellow.history), 0)
	assert.False(t, mr.red.on, "red is only for HIGH")
}

func TestLamps_KeepBlinkingWhileSilenced(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(Apnea)
	r.mgr.Silence(time.Minute)
	before := len(r.red.history)
	r.tickFor(2 * time.Second)
	assert.Greater(t, len(r.red.history), before)
}

func TestMaintain_SelfHealsInconsistentFlags(t *testing.T) {
	var buf bytes.Buffer
	r := newRig(t)
	r.mgr.log = logger.New(&buf, "debug")

	r.mgr.sounding = true
	r.mgr.ledOn = true
	r.mgr.nextTone.Set(r.clock.Now())
	r.mgr.Maintain()

	assert.False(t, r.mgr.Sounding())
	assert.False(t, r.mgr.LEDOn())
	assert.Empty(t, r.buzzer.tones)
	assert.True(t, strings.Contains(buf.String(), "Alarm sounding with no active alarm"))
	assert.True(t, strings.Contains(buf.String(), "Alarm LED enabled with no active alarm"))
}

func TestMaintain_RolloverSafeDeadlines(t *testing.T) {
	r := newRig(t)
	r.clock.Set(timebase.Millis(^uint32(0) - 50))
	r.mgr.Activate(PeepLow)

	r.tickFor(time.Second) // crosses the counter wrap
	assert.Len(t, r.buzzer.tones, 3)
}

func TestSnapshot(t *testing.T) {
	r := newRig(t)
	r.mgr.Activate(TidalVolumeLow)
	r.mgr.Activate(BatteryLow)

	s := r.mgr.Snapshot()
	assert.Equal(t, []Code{BatteryLow, TidalVolumeLow}, s.Active)
	assert.Equal(t, BatteryLow, s.Top)
	assert.True(t, s.Sounding)
	assert.False(t, s.Silenced)
}

func TestCodeText(t *testing.T) {
	for _, c := range Codes() {
		assert.NotEmpty(t, c.Text(), "code %d", c)
		assert.NotEqual(t, "none", c.String())
	}
	assert.Equal(t, "none", None.String())
	assert.Empty(t, None.Text())
	assert.Equal(t, "", NoAlarm.Color())
}
