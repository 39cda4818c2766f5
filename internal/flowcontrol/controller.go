// Package flowcontrol regulates the inspiratory proportional valve toward a
// flow setpoint during inspiration.
package flowcontrol

import (
	"time"

	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/logger"
)

// Actuator is the proportional valve drive. Level 0 is fully closed.
type Actuator interface {
	SetLevel(level float64) error
}

// Config holds the loop tuning.
type Config struct {
	Kp, Ki, Kd      float64
	SampleTime      time.Duration
	OutputMin       float64
	OutputMax       float64
	BurstLevel      float64       // unstick pulse level at breath start
	BurstSettle     time.Duration // hold the seed position this long after the pulse
	DefaultPosition float64       // seed for the very first breath
	SmoothingWindow int
}

func DefaultConfig() Config {
	return Config{
		Kp:              consts.VKP,
		Ki:              consts.VKI,
		Kd:              consts.VKD,
		SampleTime:      consts.PIDSampleTime,
		OutputMin:       consts.OutputMin,
		OutputMax:       consts.OutputMax,
		BurstLevel:      consts.BurstLevel,
		BurstSettle:     consts.BurstSettle,
		DefaultPosition: consts.DefaultValvePosition,
		SmoothingWindow: consts.SmoothingWindow,
	}
}

// Controller sequences the inspiratory valve over one breath: unstick pulse,
// settle at the remembered position, then closed-loop PID on smoothed flow.
type Controller struct {
	cfg    Config
	valve  Actuator
	pid    *PID
	smooth *Smoother
	log    logger.Logger

	active      bool
	breathStart timebase.Millis
	seed        float64
	lastGood    float64
	level       float64

	onWriteError func(error)
}

func New(cfg Config, valve Actuator, log logger.Logger) *Controller {
	c := &Controller{
		cfg:    cfg,
		valve:  valve,
		pid:    NewPID(cfg.Kp, cfg.Ki, cfg.Kd, cfg.SampleTime, cfg.OutputMin, cfg.OutputMax),
		smooth: NewSmoother(cfg.SmoothingWindow),
		log:    logger.Component(log, "flowcontrol"),
	}
	c.lastGood = c.pid.clamp(cfg.DefaultPosition)
	return c
}

// OnWriteError registers a callback for failed actuator writes.
func (c *Controller) OnWriteError(fn func(error)) {
	c.onWriteError = fn
}

// BeginBreath starts flow control toward setpointLPM.
func (c *Controller) BeginBreath(now timebase.Millis, setpointLPM float64) {
	c.seed = c.lastGood
	c.drive(c.cfg.BurstLevel)

	c.pid.SetSetpoint(setpointLPM)
	c.pid.Seed(c.seed)
	c.pid.SetMode(Automatic, 0)
	c.smooth.Clear()

	c.active = true
	c.breathStart = now
	c.log.Debug("Inspiratory flow control started", "setpoint_lpm", setpointLPM, "seed", c.seed)
}

// MaintainBreath performs one control step with the latest flow reading.
func (c *Controller) MaintainBreath(now timebase.Millis, flowLPM float64) {
	if !c.active {
		return
	}
	if timebase.Since(now, c.breathStart) < timebase.FromDuration(c.cfg.BurstSettle) {
		c.drive(c.seed)
		return
	}
	c.drive(c.pid.Compute(now, c.smooth.Smooth(flowLPM)))
}

// EndBreath remembers the last output for the next breath, disables the PID
// and closes the valve.
func (c *Controller) EndBreath() {
	if c.active {
		c.lastGood = c.pid.Output()
		c.log.Debug("Inspiratory flow control stopped", "last_output", c.lastGood)
	}
	c.active = false
	c.pid.Reset()
	c.drive(0)
}

func (c *Controller) Active() bool { return c.active }

// Output is the PID's most recent clamped output.
func (c *Controller) Output() float64 { return c.pid.Output() }

// Level is the last level written to the valve.
func (c *Controller) Level() float64 { return c.level }

// Seed is the position the next breath will start from.
func (c *Controller) Seed() float64 { return c.lastGood }

func (c *Controller) drive(level float64) {
	c.level = level
	if err := c.valve.SetLevel(level); err != nil {
		c.log.Warn("Inspiratory valve write failed", "level", level, "err", err)
		if c.onWriteError != nil {
			c.onWriteError(err)
		}
	}
}

// Personal.AI order the ending
