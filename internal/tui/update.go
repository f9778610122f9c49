package tui

import (
	"errors"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"swipedo/internal/swipe"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case snapshotMsg:
		cmd := m.applySnapshot(msg.todos)
		return m, tea.Batch(cmd, waitForSnapshot(msg.ch), m.afterEngine())

	case watchClosedMsg:
		return m, nil

	case frameMsg:
		return m, m.onFrame(msg.at)

	case opDoneMsg:
		if msg.err == nil {
			return m, nil
		}
		if msg.op.kind == opDelete {
			m.shared.clearDeleting(msg.op.id)
		}
		m.log.Error("store op failed", "op", msg.op.kind.String(), "id", msg.op.id, "err", msg.err)
		return m, m.setStatus(msg.op.kind.String()+": "+msg.err.Error(), true)

	case errMsg:
		m.log.Error("tui", "err", msg.err)
		return m, m.setStatus(msg.err.Error(), true)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}
	return m, nil
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.engine.CloseAll()
		return m, tea.Quit

	case "left", "h":
		if t, ok := m.selectedTodo(); ok {
			if mach, ok := m.engine.Machine(t.ID); ok {
				mach.Open()
			}
		}
		return m, m.afterEngine()

	case "right", "l", "esc":
		m.engine.CloseAll()
		return m, m.afterEngine()

	case " ", "enter":
		return m, m.invokeSelected(func(int) int { return 0 })

	case "d", "delete", "x":
		return m, m.invokeSelected(func(n int) int { return n - 1 })

	case "a":
		return m, m.startInput(inputAdd, "", "")

	case "A":
		t, ok := m.selectedTodo()
		if !ok {
			return m, m.setStatus("select a todo first", true)
		}
		parent := t.ID
		if t.IsSub() {
			parent = t.Parent()
		}
		return m, m.startInput(inputAddSub, parent, "")

	case "r":
		t, ok := m.selectedTodo()
		if !ok {
			return m, nil
		}
		return m, m.startInput(inputRename, t.ID, t.Title)

	case "n":
		m.showNotes = !m.showNotes
		m.resize(m.width, m.height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// invokeSelected runs an action of the selected row the way a tap on its
// button would. pick maps the action count to an index.
func (m *appModel) invokeSelected(pick func(n int) int) tea.Cmd {
	t, ok := m.selectedTodo()
	if !ok {
		return nil
	}
	mach, ok := m.engine.Machine(t.ID)
	if !ok {
		return nil
	}
	n := len(mach.Actions())
	if n == 0 {
		return nil
	}
	if err := mach.Invoke(pick(n)); err != nil {
		if errors.Is(err, swipe.ErrExecuting) {
			return m.afterEngine()
		}
		return tea.Batch(m.setStatus(err.Error(), true), m.afterEngine())
	}
	return m.afterEngine()
}

func (m *appModel) startInput(mode inputMode, target, value string) tea.Cmd {
	m.engine.CloseAll()
	m.mode = mode
	m.inputTarget = target
	m.input.SetValue(value)
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), m.afterEngine())
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode, target := m.mode, m.inputTarget
		m.mode = inputNone
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		var op storeOp
		switch mode {
		case inputAdd:
			op = storeOp{kind: opAdd, title: value}
		case inputAddSub:
			op = storeOp{kind: opAdd, title: value, parent: target}
		case inputRename:
			op = storeOp{kind: opRename, id: target, title: value}
		}
		m.shared.push(op)
		return m, m.drainOps()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleMouse turns terminal mouse events into swipe gestures. Horizontal
// motion with the button held drags the row under the press; a press and
// release without motion is a tap.
func (m *appModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.mode != inputNone {
		return nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		m.engine.CloseAll()
		if msg.Button == tea.MouseButtonWheelUp {
			m.list.CursorUp()
		} else {
			m.list.CursorDown()
		}
		return m.afterEngine()

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		idx, ok := m.rowAt(msg.Y)
		if !ok {
			m.gesture = nil
			m.engine.InterceptTap()
			return m.afterEngine()
		}
		it, ok := m.list.Items()[idx].(todoItem)
		if !ok {
			return nil
		}
		g := &gesture{key: it.todo.ID, index: idx, x0: msg.X, lastX: msg.X}
		g.tracker.Add(m.shared.now(), float64(msg.X))
		m.gesture = g
		return nil

	case msg.Action == tea.MouseActionMotion && m.gesture != nil:
		g := m.gesture
		dx := msg.X - g.lastX
		if dx == 0 || g.refused {
			return nil
		}
		mach, ok := m.engine.Machine(g.key)
		if !ok {
			g.refused = true
			return nil
		}
		if !g.dragging {
			if !mach.DragStart() {
				g.refused = true
				return nil
			}
			g.dragging = true
		}
		mach.DragDelta(float64(dx))
		g.lastX = msg.X
		g.tracker.Add(m.shared.now(), float64(msg.X))
		return m.afterEngine()

	case msg.Action == tea.MouseActionRelease && m.gesture != nil:
		g := m.gesture
		m.gesture = nil
		if g.dragging {
			if mach, ok := m.engine.Machine(g.key); ok {
				g.tracker.Add(m.shared.now(), float64(msg.X))
				out := mach.DragEnd(g.tracker.Velocity())
				m.log.Debug("drag released", "key", g.key, "outcome", out.String())
			}
			return m.afterEngine()
		}
		if g.refused {
			return nil
		}
		return m.tap(g, msg.X)
	}
	return nil
}

// tap handles a click on row g.index at column x: a visible button runs its
// action, otherwise an open row is closed, otherwise the row is selected.
func (m *appModel) tap(g *gesture, x int) tea.Cmd {
	if mach, ok := m.engine.Machine(g.key); ok {
		st := mach.Snapshot()
		th := mach.Thresholds()
		if st.Phase == swipe.PhaseRevealed {
			shift := int(math.Round(-st.Translation()))
			trayW := min(shift, int(math.Round(th.TotalActionsWidth)))
			if x >= m.width-trayW {
				local := float64(x - (m.width - int(math.Round(th.TotalActionsWidth))))
				if i := th.ActionAt(local); i >= 0 && i < len(st.Visibility) && st.Visibility[i] >= 0.5 {
					if err := mach.Invoke(i); err != nil {
						return tea.Batch(m.setStatus(err.Error(), true), m.afterEngine())
					}
					return m.afterEngine()
				}
			}
		}
	}
	if m.engine.InterceptTap() {
		return m.afterEngine()
	}
	m.list.Select(g.index)
	return nil
}

// rowAt maps a screen row to an index into the list's items.
func (m appModel) rowAt(y int) (int, bool) {
	row := y - headerHeight
	if row < 0 || row >= m.list.Height() {
		return 0, false
	}
	p := m.list.Paginator
	start, end := p.GetSliceBounds(len(m.list.Items()))
	idx := start + row
	if idx >= end {
		return 0, false
	}
	return idx, true
}

// afterEngine collects store ops queued by action callbacks and keeps frames
// coming while anything is in motion.
func (m *appModel) afterEngine() tea.Cmd {
	return tea.Batch(m.drainOps(), m.ensureFrames())
}

func (m *appModel) needsFrames() bool {
	if m.engine.Busy() || (m.gesture != nil && m.gesture.dragging) {
		return true
	}
	p := m.shared.lastPulse()
	return m.set.showHaptics && p.pattern != "" && m.shared.now().Sub(p.at) < hapticFlash
}

func (m *appModel) ensureFrames() tea.Cmd {
	if m.animating || !m.needsFrames() {
		return nil
	}
	m.animating = true
	m.lastFrame = m.shared.now()
	return m.frameTick()
}

func (m *appModel) frameTick() tea.Cmd {
	return m.after(m.set.frame, func(at time.Time) tea.Msg { return frameMsg{at: at} })
}

func (m *appModel) onFrame(at time.Time) tea.Cmd {
	dt := at.Sub(m.lastFrame)
	if dt < 0 {
		dt = 0
	}
	if dt > maxFrameStep {
		dt = maxFrameStep
	}
	m.lastFrame = at
	m.engine.Advance(dt)
	ops := m.drainOps()
	if m.needsFrames() {
		return tea.Batch(ops, m.frameTick())
	}
	m.animating = false
	return ops
}

func (m *appModel) drainOps() tea.Cmd {
	ops := m.shared.drain()
	if len(ops) == 0 || m.db == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(ops))
	ctx, db, log := m.ctx, m.db, m.log
	for _, op := range ops {
		cmds = append(cmds, func() tea.Msg {
			err := op.apply(ctx, db)
			if err == nil {
				log.Info("todo updated", "op", op.kind.String(), "id", op.id)
			}
			return opDoneMsg{op: op, err: err}
		})
	}
	return tea.Batch(cmds...)
}
