package fsm

// Machine is a tick-driven state machine over a closed set of states S.
//
// Each call to Step runs the update function for the current state. If it
// returns a different state the machine switches to it and runs the enter
// function exactly once, synchronously, before the next Step. Returning the
// current state means "no transition".
//
// Machine is not safe for concurrent use; it is owned by a single control loop.
type Machine[S comparable] struct {
	current     S
	enter       EnterFunc[S]
	update      UpdateFunc[S]
	observers   []Observer[S]
	transitions uint64
}

// EnterFunc performs the entry action of state to, reached from state from.
type EnterFunc[S comparable] func(from, to S)

// UpdateFunc performs per-tick maintenance of cur and returns the next state.
type UpdateFunc[S comparable] func(cur S) S

// Observer is notified after each completed transition.
type Observer[S comparable] func(from, to S)

func New[S comparable](initial S, enter EnterFunc[S], update UpdateFunc[S]) *Machine[S] {
	return &Machine[S]{
		current: initial,
		enter:   enter,
		update:  update,
	}
}

func (m *Machine[S]) Current() S {
	return m.current
}

// Transitions returns the number of transitions taken since construction.
func (m *Machine[S]) Transitions() uint64 {
	return m.transitions
}

func (m *Machine[S]) OnTransition(o Observer[S]) {
	m.observers = append(m.observers, o)
}

// Step runs one update of the current state and reports whether a
// transition was taken.
func (m *Machine[S]) Step() (S, bool) {
	next := m.update(m.current)
	if next == m.current {
		return m.current, false
	}
	m.switchTo(next)
	return m.current, true
}

// Force moves the machine to state to, running its entry action, without
// consulting update. It is a no-op when already in to.
func (m *Machine[S]) Force(to S) {
	if to == m.current {
		return
	}
	m.switchTo(to)
}

func (m *Machine[S]) switchTo(next S) {
	from := m.current
	// The entry action sees the new state as current
	m.current = next
	if m.enter != nil {
		m.enter(from, next)
	}
	m.transitions++
	for _, o := range m.observers {
		o(from, next)
	}
}

// Personal.AI order the ending
