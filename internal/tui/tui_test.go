package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"swipedo/internal/model"
	"swipedo/internal/store"
	"swipedo/internal/swipe"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const (
	testWidth  = 80
	testHeight = 20
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time                          { return c.t }
func (c *fakeClock) advance(d time.Duration)                 { c.t = c.t.Add(d) }
func noTimer(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

func openTestDB(t *testing.T) (store.Store, *store.DB) {
	t.Helper()
	s := store.Store{Dir: t.TempDir()}
	db, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return s, db
}

func addTodo(t *testing.T, db *store.DB, title, parent string) model.Todo {
	t.Helper()
	td, err := db.Add(context.Background(), store.NewTodo{Title: title, ParentID: parent})
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return td
}

func newTestModel(t *testing.T, s store.Store, db *store.DB) (appModel, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newAppModel(context.Background(), Options{DB: db, Store: s})
	m.shared.now = clk.now
	m.after = noTimer
	t.Cleanup(m.engine.Dispose)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return refresh(t, m, db), clk
}

func step(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(appModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

// refresh feeds the store's current todos in, as the watch feed would.
func refresh(t *testing.T, m appModel, db *store.DB) appModel {
	t.Helper()
	todos, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	m, _ = step(t, m, snapshotMsg{todos: todos})
	return m
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds every resulting message back into the model.
func deliver(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if done, ok := msg.(opDoneMsg); ok && done.err != nil {
			t.Fatalf("op %s failed: %v", done.op.kind, done.err)
		}
		m, _ = step(t, m, msg)
	}
	return m
}

// settle advances frames until nothing is moving, applying store ops queued
// along the way.
func settle(t *testing.T, m appModel, clk *fakeClock) appModel {
	t.Helper()
	for i := 0; i < 600 && m.needsFrames(); i++ {
		clk.advance(16 * time.Millisecond)
		var cmd tea.Cmd
		m, cmd = step(t, m, frameMsg{at: clk.now()})
		m = deliver(t, m, cmd)
	}
	if m.needsFrames() {
		t.Fatalf("still animating after settle")
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func phaseOf(t *testing.T, m appModel, id string) swipe.Phase {
	t.Helper()
	mach, ok := m.engine.Machine(id)
	if !ok {
		t.Fatalf("no row mounted for %s", id)
	}
	return mach.Phase()
}

func testThresholds(width int) swipe.Thresholds {
	return swipe.Compute(swipe.Geometry{ActionWidth: 9, Gap: 1, ActionCount: 2, ScreenWidth: float64(width)})
}

func testActions() []swipe.Action {
	return []swipe.Action{swipe.Nondestructive{Label: "done"}, swipe.Destructive{Label: "delete"}}
}

func TestRenderRow_AtRestShowsOnlyTheTitle(t *testing.T) {
	td := model.Todo{ID: "todo-a", Title: "Buy milk"}
	out := renderRow(td, swipe.State{Scale: 1, Alpha: 1}, testThresholds(40), testActions(), 40, false)
	if got := xansi.StringWidth(out); got != 40 {
		t.Fatalf("expected width 40, got %d", got)
	}
	plain := xansi.Strip(out)
	if !strings.Contains(plain, "☐ Buy milk") {
		t.Fatalf("expected title, got %q", plain)
	}
	if strings.Contains(plain, "delete") {
		t.Fatalf("tray should be hidden at rest, got %q", plain)
	}
}

func TestRenderRow_RevealedPinsTrayToTheRight(t *testing.T) {
	th := testThresholds(40)
	st := swipe.State{Phase: swipe.PhaseRevealed, Offset: -th.TotalActionsWidth, Scale: 1, Alpha: 1, Visibility: []float64{1, 1}}
	out := renderRow(model.Todo{ID: "todo-a", Title: "Buy milk"}, st, th, testActions(), 40, true)
	if got := xansi.StringWidth(out); got != 40 {
		t.Fatalf("expected width 40, got %d", got)
	}
	tray := xansi.Strip(xansi.Cut(out, 20, 40))
	if !strings.Contains(tray, "done") || !strings.Contains(tray, "delete") {
		t.Fatalf("expected both buttons in tray, got %q", tray)
	}
	if strings.Index(tray, "done") > strings.Index(tray, "delete") {
		t.Fatalf("expected done left of delete, got %q", tray)
	}
}

func TestRenderRow_PartialDragShowsLastActionFirst(t *testing.T) {
	th := testThresholds(40)
	off := -(th.Gap + th.ActionWidth)
	st := swipe.State{Phase: swipe.PhaseDragging, Offset: off, Scale: 1, Alpha: 1, Visibility: []float64{th.Visibility(0, off), th.Visibility(1, off)}}
	plain := xansi.Strip(renderRow(model.Todo{Title: "x"}, st, th, testActions(), 40, false))
	if !strings.Contains(plain, "delete") {
		t.Fatalf("expected delete to be exposed first, got %q", plain)
	}
	if strings.Contains(plain, "done") {
		t.Fatalf("done should still be hidden, got %q", plain)
	}
}

func TestRenderRow_FadedOutRowIsBlank(t *testing.T) {
	st := swipe.State{Phase: swipe.PhaseExecuting, Scale: 0.8, Alpha: 0}
	out := renderRow(model.Todo{Title: "gone soon"}, st, testThresholds(40), testActions(), 40, false)
	if got := xansi.StringWidth(out); got != 40 {
		t.Fatalf("expected width 40, got %d", got)
	}
	if strings.TrimSpace(xansi.Strip(out)) != "" {
		t.Fatalf("expected blank row, got %q", xansi.Strip(out))
	}
}

func TestRenderRow_SubTodoIsIndentedAndDoneIsChecked(t *testing.T) {
	parent := "todo-p"
	td := model.Todo{ID: "todo-c", Title: "child", ParentID: &parent, Done: true}
	plain := xansi.Strip(renderRow(td, swipe.State{Scale: 1, Alpha: 1}, testThresholds(30), testActions(), 30, false))
	if !strings.HasPrefix(plain, "   ☑ child") {
		t.Fatalf("expected indented checked row, got %q", plain)
	}
}

func TestFitAndCenter(t *testing.T) {
	if got := fit("abcdef", 4); xansi.StringWidth(got) != 4 || !strings.HasSuffix(got, "…") {
		t.Fatalf("fit truncate: %q", got)
	}
	if got := fit("ab", 4); got != "ab  " {
		t.Fatalf("fit pad: %q", got)
	}
	if got := center("ok", 6); got != "  ok  " {
		t.Fatalf("center: %q", got)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	def := settingsFromConfig(nil)
	if def.geometry.ActionWidth != defaultActionWidth || def.geometry.Gap != defaultGap {
		t.Fatalf("unexpected defaults: %+v", def.geometry)
	}
	if def.frame != time.Second/defaultFPS || !def.showHaptics {
		t.Fatalf("unexpected defaults: %+v", def)
	}

	off := false
	got := settingsFromConfig(&store.Config{
		Swipe: &store.SwipeConfig{ActionWidth: 12, Gap: 2, VelocityThreshold: 80, Stiffness: 400},
		TUI:   &store.TUIConfig{FPS: 1000, ShowHaptics: &off},
	})
	if got.geometry.ActionWidth != 12 || got.geometry.Gap != 2 || got.geometry.VelocityThreshold != 80 {
		t.Fatalf("geometry overrides not applied: %+v", got.geometry)
	}
	if got.spring.Stiffness != 400 || got.spring.DampingRatio != swipe.DefaultSpring.DampingRatio {
		t.Fatalf("spring overrides not applied: %+v", got.spring)
	}
	if got.frame != time.Second/240 {
		t.Fatalf("expected fps capped at 240, got %v", got.frame)
	}
	if got.showHaptics {
		t.Fatalf("expected haptics hidden")
	}
}

func TestKeys_RevealThenDeleteRemovesTodo(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	two := addTodo(t, db, "two", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, key("left"))
	m = settle(t, m, clk)
	if k, ok := m.engine.OpenKey(); !ok || k != one.ID {
		t.Fatalf("expected %s open, got %q %v", one.ID, k, ok)
	}

	var cmd tea.Cmd
	m, cmd = step(t, m, key("d"))
	m = deliver(t, m, cmd)
	if phaseOf(t, m, one.ID) != swipe.PhaseExecuting {
		t.Fatalf("expected executing")
	}
	m = settle(t, m, clk)

	if _, err := db.Get(context.Background(), one.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected %s deleted, got %v", one.ID, err)
	}
	if !m.shared.isDeleting(one.ID) {
		t.Fatalf("expected row hidden until the next snapshot")
	}
	if strings.Contains(xansi.Strip(m.list.View()), "one") {
		t.Fatalf("deleted row still drawn:\n%s", xansi.Strip(m.list.View()))
	}
	if m.shared.pulses < 5 {
		t.Fatalf("expected delete pulses, got %d", m.shared.pulses)
	}

	m = refresh(t, m, db)
	if got := len(m.list.Items()); got != 1 {
		t.Fatalf("expected 1 item, got %d", got)
	}
	if m.shared.isDeleting(one.ID) {
		t.Fatalf("delete mark should be forgotten")
	}
	if sel, _ := m.selectedTodo(); sel.ID != two.ID {
		t.Fatalf("expected selection on %s, got %s", two.ID, sel.ID)
	}
}

func TestKeys_SpaceTogglesDone(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, clk := newTestModel(t, s, db)

	var cmd tea.Cmd
	m, cmd = step(t, m, key("space"))
	m = deliver(t, m, cmd)
	m = settle(t, m, clk)

	got, err := db.Get(context.Background(), one.ID)
	if err != nil || !got.Done {
		t.Fatalf("expected done, got %+v err=%v", got, err)
	}

	m = refresh(t, m, db)
	mach, _ := m.engine.Machine(one.ID)
	if label := mach.Actions()[0].ActionLabel(); label != "undo" {
		t.Fatalf("expected undo after snapshot, got %q", label)
	}
	m, cmd = step(t, m, key("space"))
	m = deliver(t, m, cmd)
	_ = settle(t, m, clk)
	if got, _ := db.Get(context.Background(), one.ID); got.Done {
		t.Fatalf("expected undone")
	}
}

func TestKeys_RightClosesOpenRow(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, key("left"))
	m = settle(t, m, clk)
	m, _ = step(t, m, key("right"))
	m = settle(t, m, clk)
	if _, ok := m.engine.OpenKey(); ok {
		t.Fatalf("expected no open row")
	}
	if phaseOf(t, m, one.ID) != swipe.PhaseIdle {
		t.Fatalf("expected idle")
	}
}

func TestMouse_FlingRevealsThenDeepSwipeDeletes(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	addTodo(t, db, "two", "")
	m, clk := newTestModel(t, s, db)

	drag := func(m appModel, from, to, y int) appModel {
		m, _ = step(t, m, mouse(tea.MouseActionPress, from, y))
		for x := from - 5; x >= to; x -= 5 {
			clk.advance(8 * time.Millisecond)
			m, _ = step(t, m, mouse(tea.MouseActionMotion, x, y))
		}
		clk.advance(4 * time.Millisecond)
		var cmd tea.Cmd
		m, cmd = step(t, m, tea.MouseMsg{X: to, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
		return deliver(t, m, cmd)
	}

	m = drag(m, 70, 55, headerHeight)
	if phaseOf(t, m, one.ID) != swipe.PhaseRevealed {
		t.Fatalf("expected reveal after fling, got %s", phaseOf(t, m, one.ID))
	}
	m = settle(t, m, clk)

	m = drag(m, 60, 25, headerHeight)
	if phaseOf(t, m, one.ID) != swipe.PhaseExecuting {
		t.Fatalf("expected deep swipe to execute, got %s", phaseOf(t, m, one.ID))
	}
	m = settle(t, m, clk)
	if _, err := db.Get(context.Background(), one.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted, got %v", err)
	}
}

func TestMouse_SlowShortDragCloses(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, mouse(tea.MouseActionPress, 70, headerHeight))
	clk.advance(300 * time.Millisecond)
	m, _ = step(t, m, mouse(tea.MouseActionMotion, 67, headerHeight))
	clk.advance(300 * time.Millisecond)
	m, _ = step(t, m, mouse(tea.MouseActionRelease, 67, headerHeight))
	m = settle(t, m, clk)
	if phaseOf(t, m, one.ID) != swipe.PhaseIdle {
		t.Fatalf("expected idle, got %s", phaseOf(t, m, one.ID))
	}
}

func TestMouse_TapOnRevealedButtonInvokesIt(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, key("left"))
	m = settle(t, m, clk)

	// Tray spans the last 20 columns: gap, done, delete, gap.
	x := testWidth - 20 + 1 + 4
	m, _ = step(t, m, mouse(tea.MouseActionPress, x, headerHeight))
	var cmd tea.Cmd
	m, cmd = step(t, m, mouse(tea.MouseActionRelease, x, headerHeight))
	m = deliver(t, m, cmd)
	_ = settle(t, m, clk)

	if got, _ := db.Get(context.Background(), one.ID); !got.Done {
		t.Fatalf("expected done after tapping the button")
	}
}

func TestMouse_TapElsewhereOnlyClosesOpenRow(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	addTodo(t, db, "two", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, key("left"))
	m = settle(t, m, clk)

	m, _ = step(t, m, mouse(tea.MouseActionPress, 5, headerHeight+1))
	m, _ = step(t, m, mouse(tea.MouseActionRelease, 5, headerHeight+1))
	if _, ok := m.engine.OpenKey(); ok {
		t.Fatalf("expected tap to close the open row")
	}
	if sel, _ := m.selectedTodo(); sel.ID != one.ID {
		t.Fatalf("intercepted tap must not move selection, got %s", sel.ID)
	}

	m, _ = step(t, m, mouse(tea.MouseActionPress, 5, headerHeight+1))
	m, _ = step(t, m, mouse(tea.MouseActionRelease, 5, headerHeight+1))
	if sel, _ := m.selectedTodo(); sel.Title != "two" {
		t.Fatalf("expected second tap to select row two, got %q", sel.Title)
	}
}

func TestRowAt(t *testing.T) {
	s, db := openTestDB(t)
	addTodo(t, db, "one", "")
	addTodo(t, db, "two", "")
	m, _ := newTestModel(t, s, db)

	if _, ok := m.rowAt(0); ok {
		t.Fatalf("header is not a row")
	}
	if idx, ok := m.rowAt(headerHeight + 1); !ok || idx != 1 {
		t.Fatalf("expected row 1, got %d %v", idx, ok)
	}
	if _, ok := m.rowAt(headerHeight + 2); ok {
		t.Fatalf("below the last item is not a row")
	}
}

func TestInput_AddAndAddSub(t *testing.T) {
	s, db := openTestDB(t)
	parent := addTodo(t, db, "parent", "")
	m, _ := newTestModel(t, s, db)

	m, _ = step(t, m, key("a"))
	m, _ = step(t, m, key("milk"))
	var cmd tea.Cmd
	m, cmd = step(t, m, key("enter"))
	m = deliver(t, m, cmd)
	if m.mode != inputNone {
		t.Fatalf("expected input closed")
	}

	m = refresh(t, m, db)
	m.selectID(parent.ID)
	m, _ = step(t, m, key("A"))
	m, _ = step(t, m, key("child"))
	m, cmd = step(t, m, key("enter"))
	_ = deliver(t, m, cmd)

	todos, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var titles []string
	for _, td := range todos {
		titles = append(titles, td.Title)
		if td.Title == "child" && td.Parent() != parent.ID {
			t.Fatalf("child should be under %s, got %q", parent.ID, td.Parent())
		}
	}
	if got := strings.Join(titles, ","); got != "parent,child,milk" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestInput_RenameAndCancel(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, _ := newTestModel(t, s, db)

	m, _ = step(t, m, key("r"))
	if m.input.Value() != "one" {
		t.Fatalf("expected current title prefilled, got %q", m.input.Value())
	}
	m, _ = step(t, m, key("!"))
	var cmd tea.Cmd
	m, cmd = step(t, m, key("enter"))
	m = deliver(t, m, cmd)
	if got, _ := db.Get(context.Background(), one.ID); got.Title != "one!" {
		t.Fatalf("expected renamed, got %q", got.Title)
	}

	m, _ = step(t, m, key("a"))
	m, _ = step(t, m, key("nope"))
	m, cmd = step(t, m, key("esc"))
	if cmd != nil || m.mode != inputNone {
		t.Fatalf("expected esc to cancel without ops")
	}
}

func TestOpFailureRestoresRow(t *testing.T) {
	s, db := openTestDB(t)
	one := addTodo(t, db, "one", "")
	m, _ := newTestModel(t, s, db)

	m.shared.push(storeOp{kind: opDelete, id: one.ID})
	m.shared.drain()
	m, _ = step(t, m, opDoneMsg{op: storeOp{kind: opDelete, id: one.ID}, err: errors.New("disk full")})
	if m.shared.isDeleting(one.ID) {
		t.Fatalf("expected delete mark cleared")
	}
	if !m.statusErr || !strings.Contains(m.status, "disk full") {
		t.Fatalf("expected error status, got %q", m.status)
	}
	if !strings.Contains(xansi.Strip(m.View()), "disk full") {
		t.Fatalf("expected status in footer")
	}
}

func TestRestoresSavedSelection(t *testing.T) {
	s, db := openTestDB(t)
	addTodo(t, db, "one", "")
	two := addTodo(t, db, "two", "")
	if err := s.SaveTUIState(&store.TUIState{SelectedID: two.ID}); err != nil {
		t.Fatalf("save state: %v", err)
	}
	m, _ := newTestModel(t, s, db)
	if sel, _ := m.selectedTodo(); sel.ID != two.ID {
		t.Fatalf("expected %s selected, got %s", two.ID, sel.ID)
	}
}

func TestSubTodoRowsOfferPromote(t *testing.T) {
	s, db := openTestDB(t)
	parent := addTodo(t, db, "parent", "")
	child := addTodo(t, db, "child", parent.ID)
	m, clk := newTestModel(t, s, db)

	m.selectID(child.ID)
	var cmd tea.Cmd
	m, cmd = step(t, m, key("space"))
	m = deliver(t, m, cmd)
	_ = settle(t, m, clk)

	got, err := db.Get(context.Background(), child.ID)
	if err != nil || got.IsSub() {
		t.Fatalf("expected promoted, got %+v err=%v", got, err)
	}
}

func TestView_HeaderAndNotes(t *testing.T) {
	t.Setenv("SWIPEDO_TUI_MD_STYLE", "notty")
	s, db := openTestDB(t)
	if _, err := db.Add(context.Background(), store.NewTodo{Title: "one", Notes: "remember **this**"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	m, _ := newTestModel(t, s, db)

	view := xansi.Strip(m.View())
	if !strings.Contains(view, "swipedo") || !strings.Contains(view, "1 open") {
		t.Fatalf("unexpected header:\n%s", view)
	}
	m, _ = step(t, m, key("n"))
	if !strings.Contains(xansi.Strip(m.View()), "remember") {
		t.Fatalf("expected notes preview:\n%s", xansi.Strip(m.View()))
	}
}

func TestHapticFlashShowsInFooter(t *testing.T) {
	s, db := openTestDB(t)
	addTodo(t, db, "one", "")
	m, clk := newTestModel(t, s, db)

	m, _ = step(t, m, key("left"))
	if !strings.Contains(xansi.Strip(m.footerView()), "● reveal") {
		t.Fatalf("expected reveal flash, got %q", xansi.Strip(m.footerView()))
	}
	clk.advance(hapticFlash)
	if strings.Contains(xansi.Strip(m.footerView()), "●") {
		t.Fatalf("flash should expire")
	}
}
