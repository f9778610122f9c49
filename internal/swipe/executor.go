package swipe

import "time"

// executeLocked starts an execution episode for action index. Nondestructive
// callbacks fire right away while the row springs home; destructive ones wait
// for the exit group (fling, shrink, fade) to settle.
func (m *Machine) executeLocked(index int, fx *effects) {
	fn, destructive := classify(m.actions[index])
	m.episode++
	ep := m.episode
	m.pending = false
	m.setPhaseLocked(PhaseExecuting)
	m.log.Debug("swipe execute", "index", index, "destructive", destructive)

	coord, key := m.opts.Coordinator, m.key
	fx.add(func() { coord.Release(key) })

	if !destructive {
		if fn != nil {
			fx.add(fn)
		}
		m.springHomeLocked(m.offset.Velocity(), func() { m.finishEpisode(ep) })
		return
	}

	exit := m.opts.Exit
	fling := m.th.ScreenWidth
	if fling <= 0 {
		fling = m.th.DeepSwipe + m.th.ActionWidth
	}
	group := All(
		m.exit.TweenTo(-fling, exit.Fling, EaseOutCubic),
		m.scale.TweenTo(exit.Scale, exit.Fade, EaseOutCubic),
		m.alpha.TweenTo(0, exit.Fade, Linear),
	)
	m.opts.Scheduler.Go(group, func() { m.fireDestructive(ep, fn) })
	if exit.Pulses > 0 {
		m.opts.Scheduler.Go(m.pulseBurstLocked(exit), nil)
	}
}

// fireDestructive runs the callback once the exit group settled, then resets
// the row unless the callback unmounted it.
func (m *Machine) fireDestructive(ep uint64, fn func()) {
	m.mu.Lock()
	if m.disposed || m.episode != ep || m.phase != PhaseExecuting {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if fn != nil {
		fn()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.episode != ep {
		return
	}
	m.offset.Set(0)
	m.exit.Set(0)
	m.scale.Set(1)
	m.alpha.Set(1)
	m.setPhaseLocked(PhaseIdle)
}

func (m *Machine) finishEpisode(ep uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.episode != ep || m.phase != PhaseExecuting {
		return
	}
	m.setPhaseLocked(PhaseIdle)
}

// pulseBurstLocked builds the haptic burst that accompanies a destructive
// exit: one pulse now, then one after each random interval.
func (m *Machine) pulseBurstLocked(exit ExitSpec) Task {
	h := m.opts.Haptics
	pulse := &funcTask{fn: func() { h.Pulse(PatternDelete) }, alive: m.alive}
	q := &sequence{tasks: []Task{pulse}}
	for i := 1; i < exit.Pulses; i++ {
		d := m.jitterLocked(exit.PulseMin, exit.PulseMax)
		q.tasks = append(q.tasks,
			&delay{remaining: d, alive: m.alive},
			&funcTask{fn: func() { h.Pulse(PatternDelete) }, alive: m.alive},
		)
	}
	return q
}

func (m *Machine) jitterLocked(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	span := int64(hi - lo)
	if m.opts.Rand != nil {
		return lo + time.Duration(m.opts.Rand.Int64N(span+1))
	}
	return lo + time.Duration(randInt64N(span+1))
}
