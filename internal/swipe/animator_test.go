package swipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = time.Second / 60

func drain(s *Scheduler, limit time.Duration) {
	for el := time.Duration(0); el < limit && s.Busy(); el += frame {
		s.Advance(frame)
	}
}

func TestAnimator_SpringSettlesOnTarget(t *testing.T) {
	s := NewScheduler()
	a := NewAnimator(0)

	done := false
	s.Go(a.SpringTo(-132, 0, DefaultSpring), func() { done = true })
	drain(s, 3*time.Second)

	require.True(t, done)
	assert.Equal(t, -132.0, a.Value())
	assert.True(t, a.Settled())
	assert.Zero(t, a.Velocity())
}

func TestAnimator_StopKeepsInterpolatedValue(t *testing.T) {
	s := NewScheduler()
	a := NewAnimator(0)

	finished := false
	s.Go(a.SpringTo(-132, 0, DefaultSpring), func() { finished = true })
	s.Advance(frame)
	mid := a.Value()
	require.Less(t, mid, 0.0)
	require.Greater(t, mid, -132.0)

	a.Stop()
	s.Advance(frame)
	s.Advance(frame)

	assert.Equal(t, mid, a.Value())
	assert.False(t, finished, "cancelled task must not run its continuation")
	assert.False(t, s.Busy())
}

func TestAnimator_NewAnimationSupersedesOld(t *testing.T) {
	s := NewScheduler()
	a := NewAnimator(0)

	var first, second bool
	s.Go(a.SpringTo(-132, 0, DefaultSpring), func() { first = true })
	s.Advance(frame)
	s.Go(a.SpringTo(0, 0, DefaultSpring), func() { second = true })
	drain(s, 3*time.Second)

	assert.False(t, first)
	assert.True(t, second)
	assert.Zero(t, a.Value())
}

func TestAnimator_TweenHitsTargetAtDuration(t *testing.T) {
	s := NewScheduler()
	a := NewAnimator(1)

	s.Go(a.TweenTo(0.8, 100*time.Millisecond, EaseOutCubic), nil)
	s.Advance(50 * time.Millisecond)
	assert.Less(t, a.Value(), 1.0)
	assert.Greater(t, a.Value(), 0.8)

	s.Advance(50 * time.Millisecond)
	assert.Equal(t, 0.8, a.Value())
	assert.False(t, s.Busy())
}

func TestAnimator_ClampAppliesToEveryWrite(t *testing.T) {
	th := Compute(testGeometry())
	a := NewAnimator(0)
	a.SetClamp(th.Clamp)

	a.Set(-1000)
	assert.Equal(t, -132.0, a.Value())
	a.Set(50)
	assert.Zero(t, a.Value())

	s := NewScheduler()
	s.Go(a.SpringTo(-132, -5000, DefaultSpring), nil)
	for i := 0; i < 60; i++ {
		s.Advance(frame)
		v := a.Value()
		require.GreaterOrEqual(t, v, -132.0)
		require.LessOrEqual(t, v, 0.0)
	}
}

func TestScheduler_GroupWaitsForAll(t *testing.T) {
	s := NewScheduler()
	fast := NewAnimator(0)
	slow := NewAnimator(0)

	done := false
	s.Go(All(
		fast.TweenTo(1, 20*time.Millisecond, Linear),
		slow.TweenTo(1, 100*time.Millisecond, Linear),
	), func() { done = true })

	s.Advance(50 * time.Millisecond)
	assert.Equal(t, 1.0, fast.Value())
	assert.False(t, done)

	s.Advance(50 * time.Millisecond)
	assert.True(t, done)
}

func TestScheduler_GroupCancelledByAnyChild(t *testing.T) {
	s := NewScheduler()
	a := NewAnimator(0)
	b := NewAnimator(0)

	done := false
	s.Go(All(a.TweenTo(1, time.Second, Linear), b.TweenTo(1, time.Second, Linear)), func() { done = true })
	s.Advance(frame)
	b.Stop()
	drain(s, 2*time.Second)

	assert.False(t, done)
	assert.False(t, s.Busy())
}

func TestScheduler_DelayAndSequence(t *testing.T) {
	s := NewScheduler()
	var hits []int
	q := &sequence{tasks: []Task{
		&funcTask{fn: func() { hits = append(hits, 1) }},
		Delay(30 * time.Millisecond),
		&funcTask{fn: func() { hits = append(hits, 2) }},
	}}
	s.Go(q, nil)

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, []int{1}, hits)
	s.Advance(10 * time.Millisecond)
	s.Advance(10 * time.Millisecond)
	assert.Equal(t, []int{1}, hits)
	assert.True(t, s.Busy())

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, []int{1, 2}, hits)
	assert.False(t, s.Busy())
}
