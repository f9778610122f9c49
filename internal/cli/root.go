package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"swipedo/internal/format"
	"swipedo/internal/store"
	"swipedo/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg      *store.Config
	log      *slog.Logger
	logClose io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "swipedo",
		Short:        "Swipeable todo list (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI (drag rows left to reveal actions)
  swipedo

  # Scriptable commands
  swipedo add "Buy milk"
  swipedo list --format text

  # Direct lookup (shortcut for: swipedo show <todo-id>)
  swipedo todo-abcd1234

  # Replay a recorded gesture script
  swipedo replay gestures.yaml --pretty

  # Export a checklist, read the gesture guide
  swipedo export --to todos.md
  swipedo docs gestures --render
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !format.Valid(app.Format) {
			return writeErr(cmd, fmt.Errorf("unknown format: %s (want json|edn|text)", app.Format))
		}
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.closeLogger()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("SWIPEDO_DIR", ""), "Path to store dir (default: nearest .swipedo, else ~/.swipedo)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SWIPEDO_FORMAT", "json"), "Output format (json|edn|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("SWIPEDO_LOG_LEVEL", ""), "Log level (debug|info|warn|error; default from config, else info)")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newPromoteCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newReplayCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, s, err := openDB(ctx, app)
	if err != nil {
		return err
	}
	defer db.Close()
	return tui.Run(ctx, tui.Options{
		DB:     db,
		Store:  s,
		Config: app.cfg,
		Logger: app.logger(s),
	})
}

func resolveStore(app *App) (store.Store, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return store.Store{}, err
		}
		dir = d
		app.Dir = dir
	}
	return store.Store{Dir: dir}, nil
}

func openDB(ctx context.Context, app *App) (*store.DB, store.Store, error) {
	s, err := resolveStore(app)
	if err != nil {
		return nil, store.Store{}, err
	}
	db, err := s.Open(ctx)
	if err != nil {
		return nil, s, err
	}
	app.logger(s).Debug("store opened", "dir", s.Dir)
	return db, s, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
