package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"swipedo/internal/swipe"
)

// settleLimit bounds OpSettle so a script cannot spin forever.
const settleLimit = 10 * time.Second

// Trace is what a run produced.
type Trace struct {
	Name   string       `json:"name,omitempty"`
	Steps  []StepResult `json:"steps"`
	Fired  []Fired      `json:"fired"`
	Pulses []Pulse      `json:"pulses"`
}

// StepResult records the list state right after one step.
type StepResult struct {
	Index       int            `json:"index"`
	Op          Op             `json:"op"`
	Key         string         `json:"key,omitempty"`
	AtMs        float64        `json:"atMs"`
	Outcome     *swipe.Outcome `json:"outcome,omitempty"`
	Velocity    *float64       `json:"velocity,omitempty"`
	Intercepted bool           `json:"intercepted,omitempty"`
	Error       string         `json:"error,omitempty"`
	OpenKey     string         `json:"openKey,omitempty"`
	Rows        []swipe.State  `json:"rows"`
}

type Fired struct {
	AtMs   float64 `json:"atMs"`
	Key    string  `json:"key"`
	Action string  `json:"action"`
}

type Pulse struct {
	AtMs    float64       `json:"atMs"`
	Pattern swipe.Pattern `json:"pattern"`
}

var errRefused = errors.New("refused")

type runner struct {
	s     *Script
	list  *swipe.List
	log   *slog.Logger
	now   time.Duration
	items []swipe.Item
	trace *Trace

	dragKey string
	tracker swipe.VelocityTracker
	dragX   float64
}

// Run plays s against a fresh list on a virtual clock and returns the trace.
// A nil logger discards.
func Run(ctx context.Context, s *Script, logger *slog.Logger) (*Trace, error) {
	if s == nil {
		return nil, errors.New("nil script")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &runner{
		s:     s,
		log:   logger,
		trace: &Trace{Name: s.Name, Steps: []StepResult{}, Fired: []Fired{}, Pulses: []Pulse{}},
	}
	opts := swipe.Options{
		Geometry: swipe.Geometry{
			ActionWidth:       s.Geometry.ActionWidth,
			Gap:               s.Geometry.Gap,
			ScreenWidth:       s.Geometry.ScreenWidth,
			VelocityThreshold: s.Geometry.VelocityThreshold,
		},
		Haptics: swipe.HapticFunc(r.pulse),
		Logger:  logger,
		Rand:    rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)),
	}
	if s.Spring != nil {
		opts.Spring = swipe.SpringSpec{DampingRatio: s.Spring.DampingRatio, Stiffness: s.Spring.Stiffness}
	}
	r.list = swipe.NewList(opts)
	defer r.list.Dispose()

	for _, it := range s.Items {
		r.items = append(r.items, r.item(it))
	}
	r.list.Sync(r.items)

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.trace, err
		}
		res := StepResult{Index: i, Op: st.Op, Key: st.Key}
		if err := r.step(ctx, st, &res); err != nil {
			res.Error = err.Error()
		}
		res.AtMs = ms(r.now)
		res.OpenKey, _ = r.list.OpenKey()
		res.Rows = r.rows()
		r.trace.Steps = append(r.trace.Steps, res)
	}
	return r.trace, nil
}

func (r *runner) item(it Item) swipe.Item {
	key := it.Key
	out := swipe.Item{Key: key}
	for _, a := range it.Actions {
		label, removes := a.Label, a.Removes
		fn := func() {
			r.trace.Fired = append(r.trace.Fired, Fired{AtMs: ms(r.now), Key: key, Action: label})
			r.log.Debug("replay action fired", "key", key, "action", label)
			if removes {
				r.remove(key)
			}
		}
		if a.Destructive {
			out.Actions = append(out.Actions, swipe.Destructive{Label: label, OnInvoke: fn})
		} else {
			out.Actions = append(out.Actions, swipe.Nondestructive{Label: label, OnInvoke: fn})
		}
	}
	return out
}

func (r *runner) pulse(p swipe.Pattern) {
	r.trace.Pulses = append(r.trace.Pulses, Pulse{AtMs: ms(r.now), Pattern: p})
}

func (r *runner) remove(key string) {
	kept := r.items[:0]
	for _, it := range r.items {
		if it.Key != key {
			kept = append(kept, it)
		}
	}
	r.items = kept
	r.list.Remove(key)
}

func (r *runner) machine(key string) (*swipe.Machine, error) {
	m, ok := r.list.Machine(key)
	if !ok {
		return nil, fmt.Errorf("row %q is not mounted", key)
	}
	return m, nil
}

func (r *runner) step(ctx context.Context, st Step, res *StepResult) error {
	switch st.Op {
	case OpDrag:
		m, err := r.machine(st.Key)
		if err != nil {
			return err
		}
		if r.dragKey != st.Key {
			if !m.DragStart() {
				return errRefused
			}
			r.dragKey = st.Key
			r.dragX = 0
			r.tracker.Reset()
			r.tracker.Add(r.clock(), 0)
		}
		per := st.DX / float64(st.Frames)
		for i := 0; i < st.Frames; i++ {
			m.DragDelta(per)
			r.dragX += per
			r.frame(r.s.Frame)
			r.tracker.Add(r.clock(), r.dragX)
		}
		return nil

	case OpRelease:
		m, err := r.machine(st.Key)
		if err != nil {
			return err
		}
		var v float64
		if r.dragKey == st.Key {
			v = r.tracker.Velocity()
		}
		if st.Velocity != nil {
			v = *st.Velocity
		}
		r.dragKey = ""
		out := m.DragEnd(v)
		res.Outcome = &out
		res.Velocity = &v
		return nil

	case OpTap:
		if r.list.InterceptTap() {
			res.Intercepted = true
			return nil
		}
		if st.Action == nil {
			return nil
		}
		m, err := r.machine(st.Key)
		if err != nil {
			return err
		}
		return m.Invoke(*st.Action)

	case OpOpen:
		m, err := r.machine(st.Key)
		if err != nil {
			return err
		}
		if !m.Open() {
			return errRefused
		}
		return nil

	case OpClose:
		m, err := r.machine(st.Key)
		if err != nil {
			return err
		}
		m.Close()
		return nil

	case OpCloseAll:
		r.list.CloseAll()
		return nil

	case OpAdvance:
		return r.advance(ctx, st.Duration)

	case OpSettle:
		var spent time.Duration
		for r.list.Busy() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if spent >= settleLimit {
				return fmt.Errorf("still animating after %s", settleLimit)
			}
			r.frame(r.s.Frame)
			spent += r.s.Frame
		}
		return nil

	case OpRemove:
		r.remove(st.Key)
		return nil

	case OpResize:
		r.list.SetScreenWidth(st.Width)
		return nil
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

func (r *runner) advance(ctx context.Context, d time.Duration) error {
	for d > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		dt := min(r.s.Frame, d)
		r.frame(dt)
		d -= dt
	}
	return nil
}

func (r *runner) frame(dt time.Duration) {
	r.now += dt
	r.list.Advance(dt)
}

func (r *runner) clock() time.Time { return time.Unix(0, 0).Add(r.now) }

func (r *runner) rows() []swipe.State {
	snaps := r.list.Snapshots()
	out := make([]swipe.State, 0, len(snaps))
	for _, st := range snaps {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// Row returns the state of key after the last step, if it is still mounted.
func (t *Trace) Row(key string) (swipe.State, bool) {
	if t == nil || len(t.Steps) == 0 {
		return swipe.State{}, false
	}
	for _, st := range t.Steps[len(t.Steps)-1].Rows {
		if st.Key == key {
			return st, true
		}
	}
	return swipe.State{}, false
}

// FiredCount counts how many times key's action fired.
func (t *Trace) FiredCount(key, action string) int {
	n := 0
	for _, f := range t.Fired {
		if f.Key == key && f.Action == action {
			n++
		}
	}
	return n
}
