package swipe

import "time"

const velocityWindow = 100 * time.Millisecond

type sample struct {
	at time.Time
	x  float64
}

// VelocityTracker estimates release velocity from timestamped positions,
// using a least-squares slope over the most recent window.
type VelocityTracker struct {
	samples []sample
}

func (v *VelocityTracker) Reset() { v.samples = v.samples[:0] }

// Add records position x at time at. Samples older than the window are
// dropped.
func (v *VelocityTracker) Add(at time.Time, x float64) {
	v.samples = append(v.samples, sample{at: at, x: x})
	cut := 0
	for cut < len(v.samples) && at.Sub(v.samples[cut].at) > velocityWindow {
		cut++
	}
	v.samples = v.samples[cut:]
}

// Velocity returns px/s; zero with fewer than two samples or no elapsed time.
func (v *VelocityTracker) Velocity() float64 {
	n := len(v.samples)
	if n < 2 {
		return 0
	}
	t0 := v.samples[0].at
	var st, sx, stt, stx float64
	for _, s := range v.samples {
		t := s.at.Sub(t0).Seconds()
		st += t
		sx += s.x
		stt += t * t
		stx += t * s.x
	}
	fn := float64(n)
	den := fn*stt - st*st
	if den == 0 {
		return 0
	}
	return (fn*stx - st*sx) / den
}
