package hardware

import (
	stderrors "errors"
	"fmt"

	"github.com/turtacn/Anima/internal/controlloop"
	"github.com/turtacn/Anima/internal/flowcontrol"
	"github.com/turtacn/Anima/internal/sim"
	"github.com/turtacn/Anima/pkg/errors"
	"github.com/turtacn/Anima/pkg/logger"
	"github.com/turtacn/Anima/pkg/protocol"
)

// OpenRig claims the circuit's lines and PWM pin. Sensors come from bench,
// whose actuators shadow every hardware command so the modeled lung follows
// the real valves. On failure everything already claimed is released.
func OpenRig(cfg protocol.HardwareConfig, bench *sim.Bench, log logger.Logger) (controlloop.Rig, error) {
	log = logger.Component(log, "hardware")
	var lines []outputLine
	closeAll := func() error {
		var errs []error
		for _, l := range lines {
			if err := l.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		lines = nil
		return stderrors.Join(errs...)
	}
	claim := func(name string, offset, initial int) (outputLine, error) {
		l, err := requestLine(cfg.Chip, offset, initial)
		if err != nil {
			return nil, errors.New(errors.ErrCodeHardwareInit, "request line",
				fmt.Sprintf("%s on %s:%d", name, cfg.Chip, offset), err)
		}
		lines = append(lines, l)
		log.Debug("Line claimed", "name", name, "chip", cfg.Chip, "offset", offset)
		return l, nil
	}

	specs := []struct {
		name    string
		offset  int
		initial int
	}{
		// expiratory valve starts open so the patient can exhale
		{"expiratory", cfg.ExpValveLine, valveDrive(true, cfg.ExpValveNormallyOpen)},
		{"air", cfg.AirValveLine, 0},
		{"o2", cfg.O2ValveLine, 0},
		{"red", cfg.RedLampLine, 0},
		{"yellow", cfg.YellowLampLine, 0},
		{"buzzer", cfg.BuzzerLine, 0},
	}
	got := make([]outputLine, len(specs))
	for i, s := range specs {
		l, err := claim(s.name, s.offset, s.initial)
		if err != nil {
			_ = closeAll()
			return controlloop.Rig{}, err
		}
		got[i] = l
	}

	pin, err := openPWMPin(cfg.PWMPin)
	if err != nil {
		_ = closeAll()
		if errors.CodeOf(err) == errors.ErrCodeHardwareInit {
			return controlloop.Rig{}, err
		}
		return controlloop.Rig{}, errors.New(errors.ErrCodeHardwareInit, "open pwm", cfg.PWMPin, err)
	}
	insp := NewPWMValve(pin, cfg.PWMFrequency)

	rig := controlloop.Rig{
		Sensors: controlloop.LungSensors(bench.Lung),
		Actuators: controlloop.Actuators{
			InspValve: teeLevel{insp, bench.InspValve},
			ExpValve:  teeValve{NewGPIOValve("expiratory", got[0], cfg.ExpValveNormallyOpen), bench.ExpValve},
			AirValve:  teeValve{NewGPIOValve("air", got[1], false), bench.AirValve},
			O2Valve:   teeValve{NewGPIOValve("o2", got[2], false), bench.O2Valve},
			Red:       NewGPIOLamp("red", got[3], log),
			Yellow:    NewGPIOLamp("yellow", got[4], log),
			Buzzer:    NewGPIOBuzzer(got[5], log),
		},
		Plant: bench,
	}
	rig.Close = func() error {
		err := insp.SetLevel(0)
		return stderrors.Join(err, closeAll())
	}
	log.Info("Hardware rig ready", "chip", cfg.Chip, "pwm_pin", cfg.PWMPin, "pwm_hz", cfg.PWMFrequency)
	return rig, nil
}

// teeValve commands the hardware valve and mirrors the command onto the
// bench model. The hardware result is authoritative.
type teeValve struct {
	hw    *GPIOValve
	bench *sim.Valve
}

func (t teeValve) Open() error {
	err := t.hw.Open()
	if err == nil {
		_ = t.bench.Open()
	}
	return err
}

func (t teeValve) Close() error {
	err := t.hw.Close()
	if err == nil {
		_ = t.bench.Close()
	}
	return err
}

func (t teeValve) IsOpen() bool { return t.hw.IsOpen() }

type teeLevel struct {
	hw    flowcontrol.Actuator
	bench *sim.PropValve
}

func (t teeLevel) SetLevel(level float64) error {
	err := t.hw.SetLevel(level)
	if err == nil {
		_ = t.bench.SetLevel(level)
	}
	return err
}

// Personal.AI order the ending
