package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"swipedo/internal/model"
	"swipedo/internal/store"
	"swipedo/internal/swipe"
)

const (
	headerHeight = 1
	footerHeight = 1
	notesHeight  = 6
)

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputAddSub
	inputRename
)

type (
	frameMsg    struct{ at time.Time }
	snapshotMsg struct {
		todos []model.Todo
		ch    <-chan []model.Todo
	}
	watchClosedMsg struct{}
	opDoneMsg      struct {
		op  storeOp
		err error
	}
	statusClearMsg struct{ seq int }
	errMsg         struct{ err error }
)

// gesture is one press-drag-release on a row.
type gesture struct {
	key      string
	index    int
	x0       int
	lastX    int
	dragging bool
	refused  bool
	tracker  swipe.VelocityTracker
}

type appModel struct {
	ctx   context.Context
	db    *store.DB
	store store.Store
	log   *slog.Logger
	set   settings

	// after schedules a timer message (tea.Tick outside tests).
	after func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

	width  int
	height int

	list   list.Model
	engine *swipe.List
	shared *shared
	todos  []model.Todo

	gesture   *gesture
	animating bool
	lastFrame time.Time

	mode        inputMode
	input       textinput.Model
	inputTarget string

	showNotes bool
	status    string
	statusErr bool
	statusSeq int

	restoreID string
}

func newAppModel(ctx context.Context, opts Options) appModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	set := settingsFromConfig(opts.Config)
	sh := newShared()
	m := appModel{
		ctx:    ctx,
		db:     opts.DB,
		store:  opts.Store,
		log:    logger,
		set:    set,
		after:  tea.Tick,
		shared: sh,
	}
	haptics := swipe.HapticFunc(func(p swipe.Pattern) {
		sh.recordPulse(p, sh.now())
		logger.Debug("haptic", "pattern", string(p))
	})
	m.engine = swipe.NewList(swipe.Options{
		Geometry: set.geometry,
		Spring:   set.spring,
		Haptics:  haptics,
		Logger:   logger,
		Rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	})

	l := list.New(nil, rowDelegate{engine: m.engine, shared: sh}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.KeyMap.CursorUp.SetKeys("up", "k", "ctrl+p")
	l.KeyMap.CursorDown.SetKeys("down", "j", "ctrl+n")
	l.KeyMap.PrevPage.SetKeys("pgup", "b")
	l.KeyMap.NextPage.SetKeys("pgdown", "f")
	m.list = l

	in := textinput.New()
	in.CharLimit = 200
	in.Prompt = ""
	m.input = in

	if st, err := opts.Store.LoadTUIState(); err == nil && st != nil {
		m.restoreID = st.SelectedID
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.db == nil {
		return nil
	}
	ch, err := m.db.Watch(m.ctx)
	if err != nil {
		return func() tea.Msg { return errMsg{err: err} }
	}
	return waitForSnapshot(ch)
}

func waitForSnapshot(ch <-chan []model.Todo) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		todos, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg{todos: todos, ch: ch}
	}
}

func (m appModel) selectedTodo() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m *appModel) selectID(id string) bool {
	if id == "" {
		return false
	}
	for i, it := range m.list.Items() {
		if ti, ok := it.(todoItem); ok && ti.todo.ID == id {
			m.list.Select(i)
			return true
		}
	}
	return false
}

// applySnapshot swaps in the store's latest todos and reconciles the swipe
// engine with them. Open rows stay open across snapshots.
func (m *appModel) applySnapshot(todos []model.Todo) tea.Cmd {
	prev := ""
	if t, ok := m.selectedTodo(); ok {
		prev = t.ID
	}
	prevIndex := m.list.Index()

	m.todos = todos
	items := make([]list.Item, 0, len(todos))
	rows := make([]swipe.Item, 0, len(todos))
	present := make(map[string]bool, len(todos))
	for _, t := range todos {
		items = append(items, todoItem{todo: t})
		rows = append(rows, swipe.Item{Key: t.ID, Actions: rowActions(t, m.shared)})
		present[t.ID] = true
	}
	m.shared.forgetGone(present)
	m.engine.Sync(rows)
	cmd := m.list.SetItems(items)

	switch {
	case m.restoreID != "" && m.selectID(m.restoreID):
		m.restoreID = ""
	case m.selectID(prev):
	default:
		if n := len(items); n > 0 {
			m.list.Select(min(prevIndex, n-1))
		}
	}
	return cmd
}

func (m *appModel) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = msg
	m.statusErr = isErr
	seq := m.statusSeq
	return m.after(4*time.Second, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (m *appModel) resize(w, h int) {
	m.width, m.height = w, h
	listH := h - headerHeight - footerHeight
	if m.showNotes {
		listH -= notesHeight
	}
	m.list.SetSize(w, max(listH, 1))
	m.engine.SetScreenWidth(float64(w))
	m.input.Width = max(w-12, 10)
}

func (m appModel) View() string {
	if m.width <= 0 {
		return ""
	}
	parts := []string{m.headerView(), m.list.View()}
	if m.showNotes {
		parts = append(parts, m.notesView())
	}
	parts = append(parts, m.footerView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m appModel) headerView() string {
	open := 0
	for _, t := range m.todos {
		if !t.Done {
			open++
		}
	}
	title := lipgloss.NewStyle().Bold(true).Render("swipedo")
	meta := styleMuted().Render(fmt.Sprintf("  %d open · %d total  %s", open, len(m.todos), m.store.Dir))
	return fit(title+meta, m.width)
}

func (m appModel) notesView() string {
	t, ok := m.selectedTodo()
	body := styleMuted().Render("(no notes)")
	if ok && strings.TrimSpace(t.Notes) != "" {
		body = strings.TrimRight(RenderMarkdown(t.Notes, m.width), "\n")
	}
	lines := strings.Split(body, "\n")
	if len(lines) > notesHeight {
		lines = lines[:notesHeight]
	}
	for len(lines) < notesHeight {
		lines = append(lines, "")
	}
	for i, ln := range lines {
		lines[i] = fit(ln, m.width)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) footerView() string {
	switch m.mode {
	case inputAdd, inputAddSub, inputRename:
		label := map[inputMode]string{inputAdd: "Add: ", inputAddSub: "Add sub-todo: ", inputRename: "Rename: "}[m.mode]
		return fit(lipgloss.NewStyle().Bold(true).Render(label)+m.input.View(), m.width)
	}

	var left string
	if m.set.showHaptics {
		if p := m.shared.lastPulse(); p.pattern != "" && m.shared.now().Sub(p.at) < hapticFlash {
			left = lipgloss.NewStyle().Foreground(colorHaptic).Bold(true).Render("● "+string(p.pattern)) + "  "
		}
	}
	switch {
	case m.status != "" && m.statusErr:
		left += lipgloss.NewStyle().Foreground(colorDanger).Render(m.status)
	case m.status != "":
		left += m.status
	default:
		left += styleMuted().Render("←/h reveal  →/l close  space done  d delete  a add  A sub  r rename  n notes  q quit")
	}
	return fit(left, m.width)
}
