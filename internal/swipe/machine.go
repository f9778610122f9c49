package swipe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Phase is the discrete state of one row.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseRevealed
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseRevealed:
		return "revealed"
	case PhaseExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

var (
	ErrActionIndex = errors.New("swipe: action index out of range")
	ErrExecuting   = errors.New("swipe: action already executing")
	ErrDragging    = errors.New("swipe: row is being dragged")
	ErrDisposed    = errors.New("swipe: row disposed")
)

// ExitSpec tunes the destructive exit sequence.
type ExitSpec struct {
	Fling    time.Duration
	Fade     time.Duration
	Scale    float64
	Pulses   int
	PulseMin time.Duration
	PulseMax time.Duration
}

var DefaultExit = ExitSpec{
	Fling:    100 * time.Millisecond,
	Fade:     150 * time.Millisecond,
	Scale:    0.8,
	Pulses:   5,
	PulseMin: 50 * time.Millisecond,
	PulseMax: 70 * time.Millisecond,
}

// Options configure a Machine. Scheduler and Coordinator are shared by every
// row of one list.
type Options struct {
	Geometry    Geometry
	Spring      SpringSpec
	Exit        ExitSpec
	Scheduler   *Scheduler
	Coordinator *Coordinator
	Haptics     HapticSink
	Logger      *slog.Logger
	// Rand drives pulse jitter. It is only used under the row's lock, so it
	// must not be shared between rows.
	Rand *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.Scheduler == nil {
		o.Scheduler = NewScheduler()
	}
	if o.Coordinator == nil {
		o.Coordinator = NewCoordinator()
	}
	if o.Haptics == nil {
		o.Haptics = NopHaptics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Exit == (ExitSpec{}) {
		o.Exit = DefaultExit
	}
	o.Spring = o.Spring.orDefault()
	return o
}

// State is a point-in-time view of one row for rendering.
type State struct {
	Key           string    `json:"key"`
	Phase         Phase     `json:"phase"`
	Offset        float64   `json:"offset"`
	Exit          float64   `json:"exit,omitempty"`
	Scale         float64   `json:"scale"`
	Alpha         float64   `json:"alpha"`
	PendingReveal bool      `json:"pendingReveal,omitempty"`
	Visibility    []float64 `json:"visibility,omitempty"`
	Animating     bool      `json:"animating,omitempty"`
}

// Translation is how far the content is shifted left of its rest position.
func (s State) Translation() float64 { return s.Offset + s.Exit }

// Machine turns one row's drag stream into reveal, close and execute
// transitions.
type Machine struct {
	mu   sync.Mutex
	key  string
	opts Options
	log  *slog.Logger

	geom    Geometry
	th      Thresholds
	actions []Action

	phase      Phase
	startPhase Phase
	travel     float64
	pending    bool
	episode    uint64
	disposed   bool

	offset *Animator
	exit   *Animator
	scale  *Animator
	alpha  *Animator

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// NewMachine mounts a row. Callers must Dispose it when the row goes away.
func NewMachine(key string, actions []Action, opts Options) *Machine {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		key:    key,
		opts:   opts,
		log:    opts.Logger.With("key", key),
		geom:   opts.Geometry,
		offset: NewAnimator(0),
		exit:   NewAnimator(0),
		scale:  NewAnimator(1),
		alpha:  NewAnimator(1),
		ctx:    ctx,
		cancel: cancel,
	}
	m.setActionsLocked(actions)
	m.unsubscribe = opts.Coordinator.Subscribe(m.onOpenKey)
	return m
}

func (m *Machine) Key() string { return m.key }

// effects run after m.mu is released; they may call into the Coordinator,
// haptics or user callbacks.
type effects []func()

func (fx *effects) add(fn func()) { *fx = append(*fx, fn) }

func (fx effects) run() {
	for _, fn := range fx {
		fn()
	}
}

func (m *Machine) setPhaseLocked(p Phase) {
	if m.phase == p {
		return
	}
	m.log.Debug("swipe transition", "from", m.phase, "to", p)
	m.phase = p
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Thresholds returns the thresholds for the current actions.
func (m *Machine) Thresholds() Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.th
}

// Actions returns the current actions.
func (m *Machine) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Action(nil), m.actions...)
}

// Snapshot returns the row's current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	off := m.offset.Value()
	st := State{
		Key:           m.key,
		Phase:         m.phase,
		Offset:        off,
		Exit:          m.exit.Value(),
		Scale:         m.scale.Value(),
		Alpha:         m.alpha.Value(),
		PendingReveal: m.phase == PhaseDragging && m.pending,
		Animating:     !m.offset.Settled() || !m.exit.Settled() || !m.scale.Settled() || !m.alpha.Settled(),
	}
	if n := len(m.actions); n > 0 {
		st.Visibility = make([]float64, n)
		for i := range st.Visibility {
			st.Visibility[i] = m.th.Visibility(i, off)
		}
	}
	return st
}

// SetActions replaces the row's actions. A row left with nothing to reveal
// closes.
func (m *Machine) SetActions(actions []Action) {
	var fx effects
	m.mu.Lock()
	if !m.disposed {
		prev := m.th
		m.setActionsLocked(actions)
		if prev.TotalActionsWidth != m.th.TotalActionsWidth {
			m.reconcileLocked(&fx)
		}
	}
	m.mu.Unlock()
	fx.run()
}

// SetScreenWidth updates the width used for the exit fling and travel bound.
func (m *Machine) SetScreenWidth(w float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geom.ScreenWidth = w
	m.th = Compute(m.geom)
}

func (m *Machine) setActionsLocked(actions []Action) {
	m.actions = append(m.actions[:0:0], actions...)
	m.geom.ActionCount = len(m.actions)
	m.th = Compute(m.geom)
	m.offset.SetClamp(m.th.Clamp)
}

func (m *Machine) reconcileLocked(fx *effects) {
	switch m.phase {
	case PhaseRevealed, PhaseDragging:
		if !m.th.CanReveal() {
			m.closeLocked(0, fx)
			return
		}
		if m.phase == PhaseRevealed {
			m.opts.Scheduler.Go(m.offset.SpringTo(-m.th.TotalActionsWidth, 0, m.opts.Spring), nil)
		}
	}
}

// DragStart begins a gesture. It takes over the offset from wherever any
// running animation left it. It reports false when the gesture is refused.
func (m *Machine) DragStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return false
	}
	switch m.phase {
	case PhaseIdle, PhaseRevealed:
	default:
		return false
	}
	m.offset.Stop()
	m.startPhase = m.phase
	m.travel = m.offset.Value()
	m.pending = m.th.CanReveal() && m.travel < m.th.Snap
	m.setPhaseLocked(PhaseDragging)
	return true
}

// DragDelta moves the row by dx. Positive dx is rightward.
func (m *Machine) DragDelta(dx float64) {
	var fx effects
	m.mu.Lock()
	if m.disposed || m.phase != PhaseDragging || math.IsNaN(dx) {
		m.mu.Unlock()
		return
	}
	m.travel = m.th.ClampTravel(m.travel + dx)
	m.offset.Set(m.offset.Value() + dx)
	pending := m.th.CanReveal() && m.offset.Value() < m.th.Snap
	if pending && !m.pending {
		h := m.opts.Haptics
		fx.add(func() { h.Pulse(PatternThreshold) })
	}
	m.pending = pending
	m.mu.Unlock()
	fx.run()
}

// DragEnd releases the gesture with the given horizontal velocity (px/s).
func (m *Machine) DragEnd(velocity float64) Outcome {
	var fx effects
	m.mu.Lock()
	if m.disposed || m.phase != PhaseDragging {
		m.mu.Unlock()
		return OutcomeNone
	}
	if math.IsNaN(velocity) || math.IsInf(velocity, 0) {
		velocity = 0
	}
	off := m.offset.Value()
	out := Decide(m.th, m.startPhase, m.travel, off, velocity)
	m.log.Debug("swipe release", "offset", off, "travel", m.travel, "velocity", velocity, "outcome", out)
	m.pending = false
	switch out {
	case OutcomeExecute:
		m.executeLocked(len(m.actions)-1, &fx)
	case OutcomeReveal:
		m.revealLocked(velocity, &fx)
	default:
		m.closeLocked(velocity, &fx)
	}
	m.mu.Unlock()
	fx.run()
	return out
}

// Open reveals the row without a gesture.
func (m *Machine) Open() bool {
	var fx effects
	m.mu.Lock()
	if m.disposed || !m.th.CanReveal() || m.phase != PhaseIdle {
		m.mu.Unlock()
		return false
	}
	m.revealLocked(0, &fx)
	m.mu.Unlock()
	fx.run()
	return true
}

// Close returns the row to rest. It is ignored while an action executes.
func (m *Machine) Close() {
	var fx effects
	m.mu.Lock()
	if !m.disposed {
		switch m.phase {
		case PhaseRevealed, PhaseDragging:
			m.closeLocked(0, &fx)
		}
	}
	m.mu.Unlock()
	fx.run()
}

// Invoke runs action index as if its button had been tapped.
func (m *Machine) Invoke(index int) error {
	var fx effects
	m.mu.Lock()
	switch {
	case m.disposed:
		m.mu.Unlock()
		return ErrDisposed
	case m.phase == PhaseExecuting:
		m.mu.Unlock()
		return ErrExecuting
	case m.phase == PhaseDragging:
		m.mu.Unlock()
		return ErrDragging
	case index < 0 || index >= len(m.actions):
		m.mu.Unlock()
		return ErrActionIndex
	}
	m.executeLocked(index, &fx)
	m.mu.Unlock()
	fx.run()
	return nil
}

// Dispose unmounts the row: pending animations and pulses are cancelled and
// the row stops observing the coordinator. Safe to call more than once.
func (m *Machine) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.cancel()
	m.offset.Stop()
	m.exit.Stop()
	m.scale.Stop()
	m.alpha.Stop()
	m.log.Debug("swipe dispose", "phase", m.phase)
	m.mu.Unlock()

	m.unsubscribe()
	m.opts.Coordinator.Release(m.key)
}

func (m *Machine) revealLocked(velocity float64, fx *effects) {
	m.setPhaseLocked(PhaseRevealed)
	m.opts.Scheduler.Go(m.offset.SpringTo(-m.th.TotalActionsWidth, math.Min(velocity, 0), m.opts.Spring), nil)
	coord, key, h := m.opts.Coordinator, m.key, m.opts.Haptics
	fx.add(func() {
		coord.Open(key)
		// Another row revealing concurrently may have closed this one before
		// the claim landed; never leave the key on a row that is not open.
		coord.ReleaseUnless(key, m.holdsOpen)
		h.Pulse(PatternReveal)
	})
}

func (m *Machine) closeLocked(velocity float64, fx *effects) {
	m.setPhaseLocked(PhaseIdle)
	m.springHomeLocked(velocity, nil)
	coord, key := m.opts.Coordinator, m.key
	fx.add(func() { coord.Release(key) })
}

// springHomeLocked animates the offset to rest. A row already at rest is left
// alone so it never springs off with a positive velocity.
func (m *Machine) springHomeLocked(velocity float64, then func()) {
	if m.offset.Value() == 0 {
		m.offset.Set(0)
		if then != nil {
			m.opts.Scheduler.Go(&funcTask{fn: then}, nil)
		}
		return
	}
	m.opts.Scheduler.Go(m.offset.SpringTo(0, velocity, m.opts.Spring), then)
}

// onOpenKey runs when the coordinator changes hands. Another row opening (or
// a close-all) sends this row home; an executing row finishes first.
func (m *Machine) onOpenKey(key string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || (open && key == m.key) {
		return
	}
	switch m.phase {
	case PhaseRevealed, PhaseDragging:
		m.pending = false
		m.setPhaseLocked(PhaseIdle)
		m.springHomeLocked(0, nil)
	}
}

// holdsOpen reports whether the row may own the coordinator key.
func (m *Machine) holdsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disposed && (m.phase == PhaseRevealed || m.phase == PhaseDragging)
}

func (m *Machine) alive() bool { return m.ctx.Err() == nil }

var randInt64N = rand.Int64N
