package swipe

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
)

// SpringSpec parameterizes target-seeking animations.
type SpringSpec struct {
	DampingRatio float64
	Stiffness    float64
}

// DefaultSpring matches a snappy, slightly underdamped settle.
var DefaultSpring = SpringSpec{DampingRatio: 0.8, Stiffness: 1000}

func (s SpringSpec) orDefault() SpringSpec {
	if s.DampingRatio <= 0 {
		s.DampingRatio = DefaultSpring.DampingRatio
	}
	if s.Stiffness <= 0 {
		s.Stiffness = DefaultSpring.Stiffness
	}
	return s
}

// Easing maps linear progress in [0,1] onto an eased progress.
type Easing func(p float64) float64

func Linear(p float64) float64 { return p }

func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

const (
	settlePosition = 0.05
	settleVelocity = 1.0
)

// Animator owns one animated scalar. Starting an animation (or Stop/Set)
// invalidates whatever was running; the value stays where the previous
// animation left it.
type Animator struct {
	mu       sync.Mutex
	value    float64
	velocity float64
	target   float64
	gen      uint64
	active   bool
	clamp    func(float64) float64
}

func NewAnimator(initial float64) *Animator {
	return &Animator{value: initial, target: initial}
}

// SetClamp installs fn; it is applied to every write.
func (a *Animator) SetClamp(fn func(float64) float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clamp = fn
	a.value = a.bound(a.value)
	a.target = a.bound(a.target)
}

func (a *Animator) bound(v float64) float64 {
	if a.clamp == nil {
		return v
	}
	return a.clamp(v)
}

func (a *Animator) Value() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *Animator) Velocity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.velocity
}

// Settled reports whether no animation is running.
func (a *Animator) Settled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.active
}

// Set jumps to v and cancels any running animation.
func (a *Animator) Set(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.active = false
	a.value = a.bound(v)
	a.target = a.value
	a.velocity = 0
}

// Stop cancels any running animation at the current value.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.active = false
	a.velocity = 0
}

// SpringTo returns a task that drives the value to target. The previous
// animation, if any, is cancelled immediately.
func (a *Animator) SpringTo(target, velocity float64, spec SpringSpec) Task {
	spec = spec.orDefault()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.active = true
	a.target = a.bound(target)
	a.velocity = velocity
	return &springTask{
		a:     a,
		gen:   a.gen,
		omega: math.Sqrt(spec.Stiffness),
		zeta:  spec.DampingRatio,
	}
}

// TweenTo returns a task that reaches target after d, following ease.
func (a *Animator) TweenTo(target float64, d time.Duration, ease Easing) Task {
	if ease == nil {
		ease = Linear
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.active = true
	a.target = a.bound(target)
	a.velocity = 0
	return &tweenTask{
		a:        a,
		gen:      a.gen,
		from:     a.value,
		to:       a.target,
		duration: d,
		ease:     ease,
	}
}

type springTask struct {
	a      *Animator
	gen    uint64
	omega  float64
	zeta   float64
	lastDt time.Duration
	spring harmonica.Spring
}

func (t *springTask) step(dt time.Duration) status {
	a := t.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != t.gen {
		return cancelled
	}
	if dt > 0 {
		if dt != t.lastDt {
			t.spring = harmonica.NewSpring(dt.Seconds(), t.omega, t.zeta)
			t.lastDt = dt
		}
		pos, vel := t.spring.Update(a.value, a.velocity, a.target)
		a.value = a.bound(pos)
		a.velocity = vel
		if a.value != pos {
			// Hit the clamp; the spring cannot push further that way.
			a.velocity = 0
		}
	}
	if math.Abs(a.value-a.target) < settlePosition && math.Abs(a.velocity) < settleVelocity {
		a.value = a.target
		a.velocity = 0
		a.active = false
		return finished
	}
	return running
}

type tweenTask struct {
	a        *Animator
	gen      uint64
	from, to float64
	elapsed  time.Duration
	duration time.Duration
	ease     Easing
}

func (t *tweenTask) step(dt time.Duration) status {
	a := t.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != t.gen {
		return cancelled
	}
	t.elapsed += dt
	if t.duration <= 0 || t.elapsed >= t.duration {
		a.value = t.to
		a.velocity = 0
		a.active = false
		return finished
	}
	prev := a.value
	p := float64(t.elapsed) / float64(t.duration)
	a.value = a.bound(t.from + (t.to-t.from)*t.ease(p))
	if dt > 0 {
		a.velocity = (a.value - prev) / dt.Seconds()
	}
	return running
}
