package swipe

// Pattern names a haptic effect.
type Pattern string

const (
	PatternThreshold Pattern = "threshold"
	PatternReveal    Pattern = "reveal"
	PatternDelete    Pattern = "delete"
)

// HapticSink receives fire-and-forget feedback requests. Pulse is called
// outside engine locks and must not block.
type HapticSink interface {
	Pulse(p Pattern)
}

// HapticFunc adapts a function to HapticSink.
type HapticFunc func(p Pattern)

func (f HapticFunc) Pulse(p Pattern) { f(p) }

// NopHaptics discards every pulse.
type NopHaptics struct{}

func (NopHaptics) Pulse(Pattern) {}
