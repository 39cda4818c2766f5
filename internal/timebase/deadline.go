package timebase

// Deadline is an optional absolute point in time. The zero value is unset,
// meaning "never".
type Deadline struct {
	at  Millis
	set bool
}

// At returns a Deadline set to t.
func At(t Millis) Deadline {
	return Deadline{at: t, set: true}
}

func (d *Deadline) Set(t Millis) {
	d.at, d.set = t, true
}

func (d *Deadline) Clear() {
	*d = Deadline{}
}

func (d Deadline) IsSet() bool { return d.set }

// When returns the deadline and whether it is set.
func (d Deadline) When() (Millis, bool) {
	return d.at, d.set
}

// Reached reports whether the deadline is set and now has reached it.
func (d Deadline) Reached(now Millis) bool {
	return d.set && HasElapsed(now, d.at)
}

// Personal.AI order the ending
