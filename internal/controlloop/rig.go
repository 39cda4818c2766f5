package controlloop

import (
	"time"

	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/internal/breath"
	"github.com/turtacn/Anima/internal/flowcontrol"
	"github.com/turtacn/Anima/internal/sensor"
	"github.com/turtacn/Anima/internal/sim"
)

// Plant is a simulated patient circuit advanced once per tick.
type Plant interface {
	Step(dt time.Duration)
}

type Sensors struct {
	InspFlow     breath.FlowSensor
	ExpFlow      breath.FlowSensor
	InspPressure breath.PressureSensor
	ExpPressure  breath.PressureSensor
	Reservoir    breath.PressureSensor
	Oxygen       breath.OxygenSensor
}

type Actuators struct {
	InspValve flowcontrol.Actuator
	ExpValve  breath.Valve
	AirValve  breath.Valve
	O2Valve   breath.Valve
	Buzzer    alarm.Buzzer
	Red       alarm.Lamp
	Yellow    alarm.Lamp
}

// Rig is everything the engine drives.
type Rig struct {
	Sensors
	Actuators

	// Plant is stepped before sensors are read. Nil on a real circuit.
	Plant Plant
	// Close releases the devices. Optional.
	Close func() error
}

func (r Rig) devices() breath.Devices {
	return breath.Devices{
		InspFlow:     r.InspFlow,
		ExpFlow:      r.ExpFlow,
		InspPressure: r.InspPressure,
		ExpPressure:  r.ExpPressure,
		Reservoir:    r.Reservoir,
		Oxygen:       r.Oxygen,
		ExpValve:     r.ExpValve,
		AirValve:     r.AirValve,
		O2Valve:      r.O2Valve,
	}
}

// LungSensors wraps the test lung outputs in sensor collaborators. The
// pressure names follow the circuit labels: P1 reservoir, P2 inspiratory,
// P3 expiratory.
func LungSensors(l *sim.Lung) Sensors {
	return Sensors{
		InspFlow:     sensor.NewFlow("insp_flow", l.Source(sim.InspFlow)),
		ExpFlow:      sensor.NewFlow("exp_flow", l.Source(sim.ExpFlow)),
		InspPressure: sensor.NewPressure("p2", l.Source(sim.InspPressure)),
		ExpPressure:  sensor.NewPressure("p3", l.Source(sim.ExpPressure)),
		Reservoir:    sensor.NewPressure("p1", l.Source(sim.Reservoir)),
		Oxygen:       sensor.NewOxygen("o2", l.Source(sim.Oxygen)),
	}
}

// NewSimRig drives the bench entirely in simulation.
func NewSimRig(b *sim.Bench) Rig {
	return Rig{
		Sensors: LungSensors(b.Lung),
		Actuators: Actuators{
			InspValve: b.InspValve,
			ExpValve:  b.ExpValve,
			AirValve:  b.AirValve,
			O2Valve:   b.O2Valve,
			Buzzer:    b.Buzzer,
			Red:       b.Red,
			Yellow:    b.Yellow,
		},
		Plant: b,
	}
}

// Personal.AI order the ending
