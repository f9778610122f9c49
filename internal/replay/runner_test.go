package replay

import (
	"context"
	"testing"

	"swipedo/internal/swipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoActions = `
items:
  - key: a
    actions:
      - label: done
      - label: delete
        destructive: true
  - key: b
    actions:
      - label: done
      - label: delete
        destructive: true
`

func run(t *testing.T, src string) *Trace {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	tr, err := Run(context.Background(), s, nil)
	require.NoError(t, err)
	return tr
}

func pulses(tr *Trace, p swipe.Pattern) int {
	n := 0
	for _, x := range tr.Pulses {
		if x.Pattern == p {
			n++
		}
	}
	return n
}

func TestRun_DeepSwipeFromRevealedExecutesLastAction(t *testing.T) {
	tr := run(t, twoActions+`
steps:
  - op: open
    key: a
  - op: settle
  - op: drag
    key: a
    dx: -68
    frames: 4
  - op: release
    key: a
    velocity: -50
  - op: settle
`)
	require.Len(t, tr.Steps, 5)
	for _, st := range tr.Steps {
		assert.Empty(t, st.Error, "step %d", st.Index)
	}

	drag := tr.Steps[2]
	row := drag.Rows[0]
	assert.Equal(t, -132.0, row.Offset, "offset stays clamped while travel goes deeper")

	rel := tr.Steps[3]
	require.NotNil(t, rel.Outcome)
	assert.Equal(t, swipe.OutcomeExecute, *rel.Outcome)

	assert.Equal(t, 1, tr.FiredCount("a", "delete"))
	assert.Zero(t, tr.FiredCount("a", "done"))
	assert.Equal(t, 5, pulses(tr, swipe.PatternDelete))

	a, ok := tr.Row("a")
	require.True(t, ok)
	assert.Equal(t, swipe.PhaseIdle, a.Phase)
	assert.Zero(t, a.Offset)
	assert.Equal(t, 1.0, a.Scale)
	assert.Equal(t, 1.0, a.Alpha)
}

func TestRun_FastShortSwipeUsesTrackedVelocity(t *testing.T) {
	tr := run(t, twoActions+`
steps:
  - op: drag
    key: a
    dx: -30
    frames: 2
  - op: release
    key: a
  - op: settle
`)
	rel := tr.Steps[1]
	require.NotNil(t, rel.Velocity)
	assert.InDelta(t, -900.0, *rel.Velocity, 1)
	require.NotNil(t, rel.Outcome)
	assert.Equal(t, swipe.OutcomeReveal, *rel.Outcome)

	last := tr.Steps[2]
	assert.Equal(t, "a", last.OpenKey)
	a, _ := tr.Row("a")
	assert.Equal(t, swipe.PhaseRevealed, a.Phase)
	assert.Equal(t, -132.0, a.Offset)
}

func TestRun_SlowSmallDragCloses(t *testing.T) {
	tr := run(t, twoActions+`
steps:
  - op: drag
    key: a
    dx: -20
    frames: 10
  - op: release
    key: a
  - op: settle
`)
	rel := tr.Steps[1]
	require.NotNil(t, rel.Outcome)
	assert.Equal(t, swipe.OutcomeClose, *rel.Outcome)
	assert.Greater(t, *rel.Velocity, -500.0)

	a, _ := tr.Row("a")
	assert.Equal(t, swipe.PhaseIdle, a.Phase)
	assert.Zero(t, a.Offset)
	assert.Empty(t, tr.Steps[2].OpenKey)
}

func TestRun_OpeningOneRowClosesTheOtherAndTapIntercepts(t *testing.T) {
	tr := run(t, twoActions+`
steps:
  - op: open
    key: a
  - op: settle
  - op: open
    key: b
  - op: settle
  - op: tap
  - op: settle
  - op: tap
`)
	afterB := tr.Steps[3]
	assert.Equal(t, "b", afterB.OpenKey)
	for _, r := range afterB.Rows {
		if r.Key == "a" {
			assert.Zero(t, r.Offset)
			assert.Equal(t, swipe.PhaseIdle, r.Phase)
		}
	}

	assert.True(t, tr.Steps[4].Intercepted)
	assert.Empty(t, tr.Steps[5].OpenKey)
	b, _ := tr.Row("b")
	assert.Zero(t, b.Offset)
	assert.False(t, tr.Steps[6].Intercepted, "nothing left to close")
	assert.Zero(t, tr.FiredCount("a", "done")+tr.FiredCount("b", "done"))
}

func TestRun_DeleteActionRemovingItsRow(t *testing.T) {
	tr := run(t, `
items:
  - key: a
    actions:
      - label: delete
        destructive: true
        removes: true
  - key: b
steps:
  - op: tap
    key: a
    action: 0
  - op: settle
`)
	assert.Empty(t, tr.Steps[1].Error)
	assert.Equal(t, 1, tr.FiredCount("a", "delete"))
	_, ok := tr.Row("a")
	assert.False(t, ok)
	_, ok = tr.Row("b")
	assert.True(t, ok)
}

func TestRun_RemovingMidExitDropsCallback(t *testing.T) {
	tr := run(t, twoActions+`
steps:
  - op: tap
    key: a
    action: 1
  - op: advance
    duration: 50ms
  - op: remove
    key: a
  - op: settle
`)
	assert.Zero(t, tr.FiredCount("a", "delete"))
	assert.Empty(t, tr.Steps[3].Error)
	_, ok := tr.Row("a")
	assert.False(t, ok)
}

func TestRun_RefusalsAndErrorsAreRecorded(t *testing.T) {
	tr := run(t, `
items:
  - key: bare
  - key: a
    actions:
      - label: done
steps:
  - op: open
    key: bare
  - op: tap
    key: a
    action: 3
`)
	assert.Equal(t, "refused", tr.Steps[0].Error)
	assert.Contains(t, tr.Steps[1].Error, "out of range")
}

func TestRun_SameSeedSameTrace(t *testing.T) {
	src := twoActions + `
seed: 42
steps:
  - op: tap
    key: b
    action: 1
  - op: settle
`
	first := run(t, src)
	second := run(t, src)
	assert.Equal(t, first.Pulses, second.Pulses)
	assert.Len(t, first.Pulses, 5)
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	s, err := Parse([]byte(twoActions + "steps:\n  - op: closeAll\n"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := Run(ctx, s, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.Steps)
}
