package swipe

import "math"

// Outcome is what a released drag resolves to.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeClose
	OutcomeReveal
	OutcomeExecute
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClose:
		return "close"
	case OutcomeReveal:
		return "reveal"
	case OutcomeExecute:
		return "execute"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Decide applies the release rules in order:
//
//  1. a row that was already revealed executes its last action on a deep
//     swipe (travel past DeepSwipe) or a fast leftward fling;
//  2. a row past the snap line, or flung left from any non-rest offset, is
//     revealed, provided the release is not moving right;
//  3. anything else closes.
//
// travel is the unclamped gesture position; offset is the clamped one.
func Decide(t Thresholds, start Phase, travel, offset, velocity float64) Outcome {
	if !t.CanReveal() {
		return OutcomeClose
	}
	fling := velocity < -t.Velocity
	if start == PhaseRevealed && (math.Abs(travel) > t.DeepSwipe || fling) {
		return OutcomeExecute
	}
	if (offset < t.Snap || (fling && offset < 0)) && velocity <= 0 {
		return OutcomeReveal
	}
	return OutcomeClose
}
