package breath

// Phase is the current stage of the breath cycle. Exactly one is current.
type Phase int

const (
	Off Phase = iota // standby: initial and re-enterable
	Inspiration
	InspiratoryHold
	Expiration
	PeepPause
	ExpiratoryHold
)

var phaseNames = [...]string{
	Off:             "off",
	Inspiration:     "inspiration",
	InspiratoryHold: "inspiratory_hold",
	Expiration:      "expiration",
	PeepPause:       "peep_pause",
	ExpiratoryHold:  "expiratory_hold",
}

func (p Phase) String() string {
	if p < Off || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists every phase in cycle order.
func Phases() []Phase {
	return []Phase{Off, Inspiration, InspiratoryHold, Expiration, PeepPause, ExpiratoryHold}
}

// Personal.AI order the ending
