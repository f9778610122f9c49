package tui

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"swipedo/internal/model"
	"swipedo/internal/swipe"
)

// rowDelegate draws each todo shifted left by its swipe translation with the
// action tray pinned to the right edge.
type rowDelegate struct {
	engine *swipe.List
	shared *shared
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	width := m.Width()
	st := swipe.State{Scale: 1, Alpha: 1}
	var th swipe.Thresholds
	var actions []swipe.Action
	if mach, ok := d.engine.Machine(it.todo.ID); ok {
		st = mach.Snapshot()
		th = mach.Thresholds()
		actions = mach.Actions()
	}
	if d.shared.isDeleting(it.todo.ID) && st.Phase != swipe.PhaseExecuting {
		fmt.Fprint(w, strings.Repeat(" ", max(width, 0)))
		return
	}
	fmt.Fprint(w, renderRow(it.todo, st, th, actions, width, index == m.Index()))
}

func rowText(t model.Todo) string {
	box := "☐"
	if t.Done {
		box = "☑"
	}
	indent := " "
	if t.IsSub() {
		indent = "   "
	}
	return indent + box + " " + t.Title
}

// renderRow lays out one row at the given swipe state. The result is always
// width cells wide.
func renderRow(t model.Todo, st swipe.State, th swipe.Thresholds, actions []swipe.Action, width int, selected bool) string {
	if width <= 0 {
		return ""
	}

	st.Scale = math.Min(math.Max(st.Scale, 0), 1)
	inset := int(math.Round((1 - st.Scale) * float64(width) / 2))
	inset = min(max(inset, 0), width/2)
	bodyW := width - 2*inset

	style := lipgloss.NewStyle().Foreground(colorSurfaceFg)
	if t.Done {
		style = styleMuted().Strikethrough(true)
	}
	if selected {
		style = style.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	if st.Alpha < 0.5 {
		style = style.Faint(true)
	}

	body := strings.Repeat(" ", bodyW)
	if st.Alpha > 0.01 && bodyW > 0 {
		body = style.Render(fit(rowText(t), bodyW))
	}
	row := strings.Repeat(" ", inset) + body + strings.Repeat(" ", inset)

	shift := int(math.Round(-st.Translation()))
	shift = min(max(shift, 0), width)
	if shift == 0 {
		return row
	}
	visible := xansi.Cut(row, shift, width)

	total := int(math.Round(th.TotalActionsWidth))
	trayW := min(shift, total)
	filler := strings.Repeat(" ", shift-trayW)
	if trayW == 0 {
		return visible + filler
	}
	tray := renderTray(th, actions, st)
	return visible + filler + xansi.Cut(tray, total-trayW, total)
}

// renderTray draws gap, buttons, gap. Buttons still fading in are drawn as
// muted labels; hidden ones are blank.
func renderTray(th swipe.Thresholds, actions []swipe.Action, st swipe.State) string {
	aw := int(math.Round(th.ActionWidth))
	gap := strings.Repeat(" ", int(math.Round(th.Gap)))
	var b strings.Builder
	b.WriteString(gap)
	for i, a := range actions {
		vis := 0.0
		if i < len(st.Visibility) {
			vis = st.Visibility[i]
		}
		label := center(a.ActionLabel(), aw)
		switch {
		case vis <= 0:
			b.WriteString(strings.Repeat(" ", aw))
		case vis < 0.5:
			b.WriteString(styleMuted().Render(label))
		default:
			b.WriteString(buttonStyle(a, st.PendingReveal && i == len(actions)-1).Render(label))
		}
	}
	b.WriteString(gap)
	return b.String()
}

func buttonStyle(a swipe.Action, armed bool) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch {
	case swipe.IsDestructive(a):
		st = st.Background(colorDanger).Foreground(colorDangerFg)
	case a.ActionLabel() == "done":
		st = st.Background(colorDone).Foreground(colorAccentFg)
	default:
		st = st.Background(colorAccent).Foreground(colorAccentFg)
	}
	if armed {
		st = st.Underline(true)
	}
	return st
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > w {
		s = xansi.Truncate(s, w, "…")
	}
	if pad := w - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func center(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) >= w {
		return xansi.Truncate(s, w, "")
	}
	pad := w - xansi.StringWidth(s)
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
