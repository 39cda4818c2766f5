// Package hardware drives the circuit's solenoids, lamps and buzzer through
// GPIO character-device lines and the proportional inspiratory valve through
// a PWM-capable pin.
package hardware

import (
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/turtacn/Anima/pkg/errors"
	"github.com/turtacn/Anima/pkg/logger"
)

const consumer = "anima"

// outputLine is the slice of *gpiocdev.Line the drivers use.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// requestLine claims offset on chip as an output at initial.
var requestLine = func(chip string, offset, initial int) (outputLine, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GPIOValve is an on/off solenoid. A normally-open valve is open while
// de-energized, so its drive is inverted.
type GPIOValve struct {
	name         string
	line         outputLine
	normallyOpen bool
	open         bool
}

func NewGPIOValve(name string, line outputLine, normallyOpen bool) *GPIOValve {
	return &GPIOValve{name: name, line: line, normallyOpen: normallyOpen, open: normallyOpen}
}

func (v *GPIOValve) Open() error  { return v.set(true) }
func (v *GPIOValve) Close() error { return v.set(false) }
func (v *GPIOValve) IsOpen() bool { return v.open }

func (v *GPIOValve) set(open bool) error {
	if err := v.line.SetValue(valveDrive(open, v.normallyOpen)); err != nil {
		return errors.New(errors.ErrCodeActuatorWrite, "set valve", v.name, err)
	}
	v.open = open
	return nil
}

// valveDrive is the line value that puts a valve in the open or closed
// position.
func valveDrive(open, normallyOpen bool) int {
	if open != normallyOpen {
		return 1
	}
	return 0
}

// GPIOLamp is an indicator LED. Lamp writes cannot fail from the caller's
// point of view; errors are logged.
type GPIOLamp struct {
	name string
	line outputLine
	log  logger.Logger
	on   bool
}

func NewGPIOLamp(name string, line outputLine, log logger.Logger) *GPIOLamp {
	return &GPIOLamp{name: name, line: line, log: logger.Component(log, "lamp")}
}

func (l *GPIOLamp) Set(on bool) {
	if on == l.on {
		return
	}
	if err := l.line.SetValue(boolValue(on)); err != nil {
		l.log.Warn("Lamp write failed", "lamp", l.name, "error", err)
		return
	}
	l.on = on
}

func (l *GPIOLamp) On() bool { return l.on }

// GPIOBuzzer drives an active buzzer: the line switches a fixed-pitch
// sounder, so the requested frequency only distinguishes patterns upstream.
// The off edge of each beep fires from a timer goroutine.
type GPIOBuzzer struct {
	mu    sync.Mutex
	line  outputLine
	log   logger.Logger
	timer *time.Timer
	gen   uint64 // bumped by every Tone and Stop
	on    bool
}

func NewGPIOBuzzer(line outputLine, log logger.Logger) *GPIOBuzzer {
	return &GPIOBuzzer{line: line, log: logger.Component(log, "buzzer")}
}

func (b *GPIOBuzzer) Tone(_ int, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimer()
	b.gen++
	b.write(true)
	if d > 0 {
		gen := b.gen
		b.timer = time.AfterFunc(d, func() { b.expire(gen) })
	}
}

func (b *GPIOBuzzer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimer()
	b.gen++
	b.write(false)
}

// expire ends the beep started as generation gen. A timer that fired while
// a newer Tone held the lock finds the generation moved on and does nothing.
func (b *GPIOBuzzer) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return
	}
	b.timer = nil
	b.write(false)
}

func (b *GPIOBuzzer) Sounding() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *GPIOBuzzer) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *GPIOBuzzer) write(on bool) {
	if err := b.line.SetValue(boolValue(on)); err != nil {
		b.log.Warn("Buzzer write failed", "error", err)
		return
	}
	b.on = on
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}

// Personal.AI order the ending
