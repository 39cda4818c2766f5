package breath

import "github.com/turtacn/Anima/internal/alarm"

// Verdict is the outcome of a range check.
type Verdict int

const (
	InRange Verdict = iota
	TooHigh
	TooLow
)

func (v Verdict) String() string {
	switch v {
	case TooHigh:
		return "too_high"
	case TooLow:
		return "too_low"
	}
	return "in_range"
}

// Baseline is a reference reading that may not exist yet.
type Baseline struct {
	value float64
	ok    bool
}

func (b Baseline) Value() (float64, bool) { return b.value, b.ok }

func (b *Baseline) Set(v float64) { b.value, b.ok = v, true }

func (b *Baseline) Clear() { *b = Baseline{} }

// CheckRange raises high when reading exceeds expected+margin and low when
// it falls below expected-margin. An in-range reading clears low only: a
// raised high alarm stays latched until something else clears it.
func CheckRange(a AlarmSink, reading, expected, margin float64, high, low alarm.Code) Verdict {
	switch {
	case reading > expected+margin:
		a.Activate(high)
		return TooHigh
	case reading < expected-margin:
		a.Activate(low)
		return TooLow
	default:
		a.Deactivate(low)
		return InRange
	}
}

// CheckRangeWithUpdate compares reading against base and moves base to
// reading when in range. The first reading only seeds the baseline.
func CheckRangeWithUpdate(a AlarmSink, reading float64, base *Baseline, margin float64, high, low alarm.Code) Verdict {
	ref, ok := base.Value()
	if !ok {
		base.Set(reading)
		return InRange
	}
	v := CheckRange(a, reading, ref, margin, high, low)
	if v == InRange {
		base.Set(reading)
	}
	return v
}

// Personal.AI order the ending
