// Package alarm tracks active clinical alarms and sequences the buzzer,
// indicator lamps and panel banner so that the single highest-priority
// condition is always the one presented.
package alarm

import (
	"time"

	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/logger"
)

// Manager owns the alarm state for the process lifetime. It is driven from
// the control loop only and is not safe for concurrent use.
type Manager struct {
	clock     timebase.Clock
	out       Outputs
	log       logger.Logger
	observers []Observer

	active [numCodes]bool

	// sounding: audio currently permitted. ledOn: visual currently permitted.
	// Both are only valid while at least one alarm is active.
	sounding bool
	ledOn    bool

	tonePhase int
	ledPhase  int

	rearm     timebase.Deadline
	nextTone  timebase.Deadline
	nextBlink timebase.Deadline
}

// NewManager creates a manager with all alarms off.
func NewManager(clock timebase.Clock, out Outputs, log logger.Logger) *Manager {
	return &Manager{
		clock: clock,
		out:   out.withDefaults(),
		log:   logger.Component(log, "alarm"),
	}
}

// AddObserver registers o for raise/clear notifications.
func (m *Manager) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// Activate raises the alarm c. Raising an alarm that becomes the top alarm
// unsilences and restarts the audio/visual pattern. Invalid or already active
// codes are ignored.
func (m *Manager) Activate(c Code) {
	if !c.Valid() || m.active[c] {
		return
	}
	m.active[c] = true
	m.ledOn = true
	m.log.Warn("Alarm raised", "alarm", c.String(), "priority", PriorityOf(c).String())
	for _, o := range m.observers {
		o.AlarmRaised(c)
	}

	if m.TopAlarm() == c {
		m.sounding = true
		m.begin()
		m.out.Banner.ShowAlarm(c, c.Text(), PriorityOf(c))
	}
}

// Deactivate clears the alarm c and hands the annunciators to whatever alarm
// is now on top. Inactive or invalid codes are ignored.
func (m *Manager) Deactivate(c Code) {
	if !m.IsActive(c) {
		return
	}
	m.active[c] = false
	m.quell(c)
	m.log.Info("Alarm cleared", "alarm", c.String())
	for _, o := range m.observers {
		o.AlarmCleared(c)
	}

	top := m.TopAlarm()
	switch {
	case top == None:
		m.sounding, m.ledOn = false, false
		m.rearm.Clear()
		m.nextTone.Clear()
		m.nextBlink.Clear()
		m.out.Red.Set(false)
		m.out.Yellow.Set(false)
		m.out.Banner.HideAlarm()
	case top > c:
		// a lower-priority alarm remains and takes over from phase 0
		m.begin()
		m.out.Banner.ShowAlarm(top, top.Text(), PriorityOf(top))
	}
	// otherwise a higher-priority alarm continues undisturbed
}

// IsActive reports whether c is on, silenced or not.
func (m *Manager) IsActive(c Code) bool {
	return c.Valid() && m.active[c]
}

// TopAlarm returns the active alarm with the lowest code, or None.
func (m *Manager) TopAlarm() Code {
	for c := Shutdown; c < numCodes; c++ {
		if m.active[c] {
			return c
		}
	}
	return None
}

// OnPriority reports whether any alarm in band p is active.
func (m *Manager) OnPriority(p Priority) bool {
	if !p.valid() {
		return false
	}
	for c := firstCodeAt[p]; c < firstCodeAt[p+1]; c++ {
		if m.active[c] {
			return true
		}
	}
	return false
}

// Silence stops audio for d while leaving the lamps on. A newly raised alarm
// that becomes top rearms early.
func (m *Manager) Silence(d time.Duration) {
	m.sounding = false
	m.out.Buzzer.Stop()
	if m.TopAlarm() == None {
		return
	}
	m.rearm.Set(timebase.Add(m.clock.Now(), d))
	m.log.Info("Alarms silenced", "duration", d)
}

// IsSilenced reports whether an alarm is active but not audible.
func (m *Manager) IsSilenced() bool {
	return !m.sounding && m.TopAlarm() != None
}

func (m *Manager) Sounding() bool { return m.sounding }

func (m *Manager) LEDOn() bool { return m.ledOn }

// Maintain advances the tone and blink sequencers. Call once per tick.
func (m *Manager) Maintain() {
	now := m.clock.Now()

	if m.rearm.Reached(now) {
		m.rearm.Clear()
		if m.TopAlarm() != None {
			m.begin()
		}
	}

	top := m.TopAlarm()

	if m.sounding {
		if top == None {
			// sounding should only ever be set while an alarm is active
			m.log.Error("Alarm sounding with no active alarm")
			m.sounding = false
			m.out.Buzzer.Stop()
		} else if m.nextTone.Reached(now) {
			m.stepTone(now, PriorityOf(top))
		}
	}

	if m.ledOn {
		if top == None {
			m.log.Error("Alarm LED enabled with no active alarm")
			m.ledOn = false
			m.out.Red.Set(false)
			m.out.Yellow.Set(false)
		} else if m.nextBlink.Reached(now) {
			m.stepLamps(now)
		}
	}
}

// Snapshot is a read-only view of the manager for logs and metrics.
type Snapshot struct {
	Active   []Code
	Top      Code
	Sounding bool
	LEDOn    bool
	Silenced bool
}

func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{
		Top:      m.TopAlarm(),
		Sounding: m.sounding,
		LEDOn:    m.ledOn,
		Silenced: m.IsSilenced(),
	}
	for c := Shutdown; c < numCodes; c++ {
		if m.active[c] {
			s.Active = append(s.Active, c)
		}
	}
	return s
}

// begin resets the pattern sequencers for a new top alarm.
func (m *Manager) begin() {
	now := m.clock.Now()
	m.sounding, m.ledOn = true, true
	m.nextTone.Set(now)
	m.nextBlink.Set(now)
	m.tonePhase, m.ledPhase = 0, 0
	m.rearm.Clear()
}

// quell stops the tone and the lamp belonging to c without touching state.
func (m *Manager) quell(c Code) {
	m.out.Buzzer.Stop()
	switch PriorityOf(c) {
	case High:
		m.out.Red.Set(false)
	case Medium, Low:
		m.out.Yellow.Set(false)
	}
}

func (m *Manager) stepTone(now timebase.Millis, p Priority) {
	pat := tonePatterns[p]
	m.out.Buzzer.Tone(pat.freqHz, pat.beep)
	if pat.once {
		m.nextTone.Clear()
		m.sounding = false
		return
	}
	gap := pat.gaps[m.tonePhase%len(pat.gaps)]
	m.tonePhase = (m.tonePhase + 1) % len(pat.gaps)
	m.nextTone.Set(timebase.Add(now, gap))
}

func (m *Manager) stepLamps(now timebase.Millis) {
	m.out.Red.Set(redLampOn(m.OnPriority(High), m.ledPhase))
	m.out.Yellow.Set(yellowLampOn(m.OnPriority(Medium), m.OnPriority(Low), m.ledPhase))
	m.ledPhase = (m.ledPhase + 1) % blinkPhases
	m.nextBlink.Set(timebase.Add(now, blinkStep))
}

// Personal.AI order the ending
