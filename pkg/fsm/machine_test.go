package fsm

import (
	"testing"
)

type light int

const (
	off light = iota
	on
	broken
)

func TestMachine_Basic(t *testing.T) {
	pushed := false
	sm := New(off, nil, func(cur light) light {
		if cur == off && pushed {
			return on
		}
		return cur
	})

	if sm.Current() != off {
		t.Errorf("Expected off, got %v", sm.Current())
	}

	if _, moved := sm.Step(); moved {
		t.Fatal("Expected no transition before push")
	}

	pushed = true
	cur, moved := sm.Step()
	if !moved || cur != on {
		t.Errorf("Expected transition to on, got %v (moved=%v)", cur, moved)
	}
	if sm.Transitions() != 1 {
		t.Errorf("Expected 1 transition, got %d", sm.Transitions())
	}
}

func TestMachine_EnterRunsOncePerTransitionBeforeUpdate(t *testing.T) {
	var log []string
	var sm *Machine[light]
	sm = New(off,
		func(from, to light) {
			if sm.Current() != to {
				t.Errorf("Expected entry action to see %v as current, saw %v", to, sm.Current())
			}
			log = append(log, "enter")
		},
		func(cur light) light {
			log = append(log, "update")
			if cur == off {
				return on
			}
			return cur
		})

	sm.Step()
	sm.Step()
	sm.Step()

	want := []string{"update", "enter", "update", "update"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, log)
		}
	}
}

func TestMachine_ObserversSeeFromTo(t *testing.T) {
	sm := New(off, nil, func(cur light) light { return on })
	var from, to light = broken, broken
	sm.OnTransition(func(f, n light) { from, to = f, n })

	sm.Step()
	if from != off || to != on {
		t.Errorf("Expected off->on, got %v->%v", from, to)
	}
}

func TestMachine_Force(t *testing.T) {
	entered := 0
	sm := New(on, func(from, to light) { entered++ }, func(cur light) light { return cur })

	sm.Force(on)
	if entered != 0 {
		t.Errorf("Force to the current state should not run entry, ran %d", entered)
	}

	sm.Force(broken)
	if sm.Current() != broken || entered != 1 {
		t.Errorf("Expected broken with one entry, got %v with %d", sm.Current(), entered)
	}
}
