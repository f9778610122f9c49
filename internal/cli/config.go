package cli

import (
	"strings"

	"swipedo/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit ~/.swipedo/config.json",
	}
	cmd.AddCommand(newConfigPathCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetSwipeCmd(app))
	cmd.AddCommand(newConfigSetLogCmd(app))
	return cmd
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]any{"data": app.cfg})
		},
	}
}

func newConfigSetSwipeCmd(app *App) *cobra.Command {
	var (
		actionWidth int
		gap         int
		velocity    float64
		damping     float64
		stiffness   float64
		reset       bool
	)
	cmd := &cobra.Command{
		Use:   "set-swipe",
		Short: "Tune swipe geometry and spring feel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cfg == nil {
				cfg = &store.Config{}
			}
			if reset {
				cfg.Swipe = nil
			} else {
				if cfg.Swipe == nil {
					cfg.Swipe = &store.SwipeConfig{}
				}
				f := cmd.Flags()
				if f.Changed("action-width") {
					if actionWidth < 1 {
						return writeErr(cmd, errUsage("--action-width must be at least 1"))
					}
					cfg.Swipe.ActionWidth = actionWidth
				}
				if f.Changed("gap") {
					if gap < 0 {
						return writeErr(cmd, errUsage("--gap must not be negative"))
					}
					cfg.Swipe.Gap = gap
				}
				if f.Changed("velocity") {
					cfg.Swipe.VelocityThreshold = velocity
				}
				if f.Changed("damping") {
					if damping <= 0 {
						return writeErr(cmd, errUsage("--damping must be positive"))
					}
					cfg.Swipe.DampingRatio = damping
				}
				if f.Changed("stiffness") {
					if stiffness <= 0 {
						return writeErr(cmd, errUsage("--stiffness must be positive"))
					}
					cfg.Swipe.Stiffness = stiffness
				}
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.cfg = cfg
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	}
	cmd.Flags().IntVar(&actionWidth, "action-width", 0, "Action button width in columns")
	cmd.Flags().IntVar(&gap, "gap", 0, "Padding around the action tray in columns")
	cmd.Flags().Float64Var(&velocity, "velocity", 0, "Fling threshold in columns/second")
	cmd.Flags().Float64Var(&damping, "damping", 0, "Spring damping ratio")
	cmd.Flags().Float64Var(&stiffness, "stiffness", 0, "Spring stiffness")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all swipe overrides")
	return cmd
}

func newConfigSetLogCmd(app *App) *cobra.Command {
	var (
		level      string
		file       string
		maxSizeMB  int
		maxBackups int
	)
	cmd := &cobra.Command{
		Use:   "set-log",
		Short: "Configure the rotating log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cfg == nil {
				cfg = &store.Config{}
			}
			if cfg.Log == nil {
				cfg.Log = &store.LogConfig{}
			}
			f := cmd.Flags()
			if f.Changed("level") {
				if _, err := parseLevel(level); err != nil {
					return writeErr(cmd, err)
				}
				cfg.Log.Level = strings.ToLower(strings.TrimSpace(level))
			}
			if f.Changed("file") {
				cfg.Log.File = strings.TrimSpace(file)
			}
			if f.Changed("max-size-mb") {
				cfg.Log.MaxSizeMB = maxSizeMB
			}
			if f.Changed("max-backups") {
				cfg.Log.MaxBackups = maxBackups
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.cfg = cfg
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "debug|info|warn|error")
	cmd.Flags().StringVar(&file, "file", "", "Log file path (default: <dir>/swipedo.log)")
	cmd.Flags().IntVar(&maxSizeMB, "max-size-mb", 0, "Rotate after this many megabytes")
	cmd.Flags().IntVar(&maxBackups, "max-backups", 0, "Rotated files to keep")
	return cmd
}
