package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Anima/internal/sensor"
	"github.com/turtacn/Anima/pkg/protocol"
)

func newBench() *Bench {
	return NewBench(protocol.Default().Sim)
}

func stepFor(b *Bench, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 10 * time.Millisecond {
		b.Step(10 * time.Millisecond)
	}
}

func TestBenchAtRest(t *testing.T) {
	b := newBench()
	assert.True(t, b.ExpValve.IsOpen())
	assert.False(t, b.AirValve.IsOpen())
	assert.Zero(t, b.InspValve.Level())

	b.Step(30 * time.Millisecond)
	assert.Zero(t, b.Lung.Value(InspFlow))
	assert.Equal(t, 5.0, b.Lung.Value(ExpPressure))
	assert.Equal(t, 1500.0, b.Lung.Value(Reservoir))
	assert.Equal(t, 21.0, b.Lung.Value(Oxygen))
}

func TestInflation(t *testing.T) {
	b := newBench()
	require.NoError(t, b.ExpValve.Close())
	require.NoError(t, b.InspValve.SetLevel(255))

	stepFor(b, 100*time.Millisecond)
	assert.InDelta(t, 120, b.Lung.Value(InspFlow), 1e-9)
	assert.InDelta(t, 200, b.Lung.Volume(), 1e-6)
	// elastic 4 + PEEP 5 + resistive 40
	assert.InDelta(t, 49, b.Lung.Value(InspPressure), 1e-6)
	assert.InDelta(t, 9, b.Lung.Value(ExpPressure), 1e-6)
	assert.InDelta(t, 1400, b.Lung.Value(Reservoir), 1e-6)

	// below the crack level nothing flows
	require.NoError(t, b.InspValve.SetLevel(20))
	b.Step(10 * time.Millisecond)
	assert.Zero(t, b.Lung.Value(InspFlow))
	assert.InDelta(t, 200, b.Lung.Volume(), 1e-6)
}

func TestPassiveExhalation(t *testing.T) {
	b := newBench()
	require.NoError(t, b.ExpValve.Close())
	require.NoError(t, b.InspValve.SetLevel(255))
	stepFor(b, 200*time.Millisecond)
	require.NoError(t, b.InspValve.SetLevel(0))

	// held: no leak while both valves are shut
	stepFor(b, 100*time.Millisecond)
	assert.InDelta(t, 400, b.Lung.Volume(), 1e-6)

	require.NoError(t, b.ExpValve.Open())
	b.Step(10 * time.Millisecond)
	assert.Positive(t, b.Lung.Value(ExpFlow))

	stepFor(b, time.Second)
	assert.Less(t, b.Lung.Volume(), 0.01)
	assert.InDelta(t, 5, b.Lung.Value(ExpPressure), 0.01)
}

func TestRefillMixesOxygen(t *testing.T) {
	b := newBench()
	require.NoError(t, b.O2Valve.Open())
	stepFor(b, 100*time.Millisecond)

	assert.InDelta(t, 1700, b.Lung.Value(Reservoir), 1e-6)
	assert.Greater(t, b.Lung.Value(Oxygen), 21.0)
	assert.Less(t, b.Lung.Value(Oxygen), 100.0)

	require.NoError(t, b.O2Valve.Close())
	before := b.Lung.Value(Reservoir)
	b.Step(10 * time.Millisecond)
	assert.Equal(t, before, b.Lung.Value(Reservoir))
}

func TestStarvedSupplyLimitsFlow(t *testing.T) {
	b := newBench()
	b.Lung.SetReservoir(250)
	require.NoError(t, b.ExpValve.Close())
	require.NoError(t, b.InspValve.SetLevel(255))
	b.Step(time.Millisecond)
	assert.InDelta(t, 60, b.Lung.Value(InspFlow), 1e-9)
}

func TestPatientEffort(t *testing.T) {
	cfg := protocol.Default().Sim
	cfg.EffortEvery = protocol.Duration(time.Second)
	b := NewBench(cfg)

	stepFor(b, 990*time.Millisecond)
	assert.Equal(t, 5.0, b.Lung.Value(ExpPressure))
	b.Step(10 * time.Millisecond)
	assert.Equal(t, 3.0, b.Lung.Value(ExpPressure))

	stepFor(b, 200*time.Millisecond)
	assert.Equal(t, 5.0, b.Lung.Value(ExpPressure))
}

func TestSourceFaults(t *testing.T) {
	b := newBench()
	p := sensor.NewPressure("p2", b.Lung.Source(InspPressure))
	require.NoError(t, p.Read())
	assert.Equal(t, 5.0, p.Get())

	b.Lung.Fail(InspPressure, errors.New("adc timeout"))
	assert.Error(t, p.Read())

	b.Lung.Fail(InspPressure, nil)
	assert.NoError(t, p.Read())
}

func TestActuatorRecorders(t *testing.T) {
	v := NewValve("air", false)
	require.NoError(t, v.Open())
	require.NoError(t, v.Open())
	require.NoError(t, v.Close())
	assert.Equal(t, 2, v.Toggles())
	assert.Equal(t, "air", v.Name())

	v.Fail(errors.New("stuck"))
	assert.Error(t, v.Open())
	assert.False(t, v.IsOpen())

	var bz Buzzer
	bz.Tone(880, 75*time.Millisecond)
	f, d := bz.Last()
	assert.Equal(t, 880, f)
	assert.Equal(t, 75*time.Millisecond, d)
	assert.True(t, bz.Sounding())
	bz.Stop()
	assert.False(t, bz.Sounding())

	var l Lamp
	l.Set(true)
	l.Set(true)
	l.Set(false)
	assert.Equal(t, 2, l.Changes())

	assert.Equal(t, "oxygen", Oxygen.String())
	assert.Equal(t, "signal(9)", Signal(9).String())
}
