package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"swipedo/internal/store"
)

// Options configure the interactive list.
type Options struct {
	DB     *store.DB
	Store  store.Store
	Config *store.Config
	Logger *slog.Logger
}

// Run shows the swipeable todo list until the user quits or ctx is done.
// The selected todo is remembered for the next run.
func Run(ctx context.Context, opts Options) error {
	if opts.DB == nil {
		return errors.New("tui: no database")
	}
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ctx, opts)
	defer m.engine.Dispose()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(appModel); ok {
		st := store.TUIState{Version: 1}
		if t, ok := fm.selectedTodo(); ok {
			st.SelectedID = t.ID
		}
		if serr := opts.Store.SaveTUIState(&st); serr != nil && opts.Logger != nil {
			opts.Logger.Warn("save tui state", "err", serr)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
