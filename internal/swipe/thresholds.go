package swipe

import "math"

// DefaultVelocityThreshold is the release speed (px/s) past which a leftward
// release counts as a fling.
const DefaultVelocityThreshold = 500.0

// Geometry describes the action tray behind one row.
type Geometry struct {
	ActionWidth       float64
	ActionCount       int
	Gap               float64
	ScreenWidth       float64
	VelocityThreshold float64
}

// Thresholds are the derived offsets a drag is judged against.
//
// Offsets are negative (content moves left); Snap is an offset, DeepSwipe is a
// magnitude.
type Thresholds struct {
	ActionWidth       float64
	ActionCount       int
	Gap               float64
	ScreenWidth       float64
	TotalActionsWidth float64
	Snap              float64
	DeepSwipe         float64
	Velocity          float64
}

// Compute derives thresholds from g. With no actions every threshold is zero
// and the row can never leave its rest position.
func Compute(g Geometry) Thresholds {
	v := g.VelocityThreshold
	if v <= 0 {
		v = DefaultVelocityThreshold
	}
	t := Thresholds{
		ActionWidth: math.Max(g.ActionWidth, 0),
		ActionCount: max(g.ActionCount, 0),
		Gap:         math.Max(g.Gap, 0),
		ScreenWidth: math.Max(g.ScreenWidth, 0),
		Velocity:    v,
	}
	if t.ActionCount == 0 {
		return t
	}
	t.TotalActionsWidth = t.ActionWidth*float64(t.ActionCount) + 2*t.Gap
	t.Snap = -t.TotalActionsWidth / 2
	t.DeepSwipe = t.TotalActionsWidth + t.ActionWidth
	return t
}

// CanReveal reports whether there is anything to reveal.
func (t Thresholds) CanReveal() bool {
	return t.ActionCount > 0 && t.TotalActionsWidth > 0
}

// Clamp keeps offset within [-TotalActionsWidth, 0].
func (t Thresholds) Clamp(offset float64) float64 {
	if math.IsNaN(offset) || offset > 0 || t.TotalActionsWidth <= 0 {
		return 0
	}
	if offset < -t.TotalActionsWidth {
		return -t.TotalActionsWidth
	}
	return offset
}

// ClampTravel bounds raw gesture travel to [-ScreenWidth, 0]. Travel is allowed
// past the tray so a deep swipe can be measured.
func (t Thresholds) ClampTravel(travel float64) float64 {
	if math.IsNaN(travel) || travel > 0 {
		return 0
	}
	limit := t.ScreenWidth
	if limit < t.DeepSwipe+t.ActionWidth {
		limit = t.DeepSwipe + t.ActionWidth
	}
	if travel < -limit {
		return -limit
	}
	return travel
}

// RevealAt is the offset magnitude at which action index becomes visible.
// Actions appear right to left, so the last one is revealed first.
func (t Thresholds) RevealAt(index int) float64 {
	if index < 0 || index >= t.ActionCount {
		return math.Inf(1)
	}
	fromRight := float64(t.ActionCount - 1 - index)
	return t.Gap + t.ActionWidth*fromRight + t.ActionWidth/2
}

// Visibility is a 0..1 fade for action index at the given offset. The fade
// spans half an action width ending at the reveal threshold.
func (t Thresholds) Visibility(index int, offset float64) float64 {
	at := t.RevealAt(index)
	if math.IsInf(at, 1) {
		return 0
	}
	mag := -t.Clamp(offset)
	span := t.ActionWidth / 2
	if span <= 0 {
		if mag >= at {
			return 1
		}
		return 0
	}
	v := (mag - (at - span)) / span
	return math.Min(math.Max(v, 0), 1)
}

// ActionAt maps a position measured from the tray's left edge to an action
// index. It returns -1 for the gap padding or anything outside the tray.
func (t Thresholds) ActionAt(local float64) int {
	if !t.CanReveal() || t.ActionWidth <= 0 {
		return -1
	}
	local -= t.Gap
	if local < 0 {
		return -1
	}
	i := int(local / t.ActionWidth)
	if i >= t.ActionCount {
		return -1
	}
	return i
}
