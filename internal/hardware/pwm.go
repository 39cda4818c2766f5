package hardware

import (
	"math"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/errors"
)

// pwmPin is the slice of gpio.PinIO the valve needs.
type pwmPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Out(l gpio.Level) error
}

// openPWMPin initializes the host drivers and looks name up in the pin
// registry.
var openPWMPin = func(name string) (pwmPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.New(errors.ErrCodeHardwareInit, "open pwm", "no such pin "+name, nil)
	}
	return p, nil
}

// PWMValve is the proportional inspiratory valve. Drive levels 0..255 map
// linearly onto duty cycle; level 0 holds the pin low.
type PWMValve struct {
	pin   pwmPin
	freq  physic.Frequency
	level float64
}

func NewPWMValve(pin pwmPin, hz int) *PWMValve {
	return &PWMValve{pin: pin, freq: physic.Frequency(hz) * physic.Hertz}
}

func (v *PWMValve) SetLevel(level float64) error {
	level = math.Max(0, math.Min(level, consts.ValveLevelMax))
	var err error
	if level == 0 {
		err = v.pin.Out(gpio.Low)
	} else {
		err = v.pin.PWM(dutyFor(level), v.freq)
	}
	if err != nil {
		return errors.New(errors.ErrCodeActuatorWrite, "set pwm", "inspiratory valve", err)
	}
	v.level = level
	return nil
}

func (v *PWMValve) Level() float64 { return v.level }

func dutyFor(level float64) gpio.Duty {
	return gpio.Duty(math.Round(level / consts.ValveLevelMax * float64(gpio.DutyMax)))
}

// Personal.AI order the ending
