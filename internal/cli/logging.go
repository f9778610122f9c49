package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"swipedo/internal/store"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSizeMB  = 5
	defaultLogMaxBackups = 3
)

// parseLevel accepts debug|info|warn|error (case-insensitive). Empty means info.
func parseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// newFileLogger writes JSON records to a size-rotated file; the terminal
// belongs to the TUI.
func newFileLogger(path string, lc *store.LogConfig, level slog.Level) (*slog.Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    defaultLogMaxSizeMB,
		MaxBackups: defaultLogMaxBackups,
	}
	if lc != nil {
		if strings.TrimSpace(lc.File) != "" {
			w.Filename = lc.File
		}
		if lc.MaxSizeMB > 0 {
			w.MaxSize = lc.MaxSizeMB
		}
		if lc.MaxBackups > 0 {
			w.MaxBackups = lc.MaxBackups
		}
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), w
}

// logger returns the app logger, creating it on first use. Level precedence:
// --log-level / SWIPEDO_LOG_LEVEL, then config, then info.
func (app *App) logger(s store.Store) *slog.Logger {
	if app.log != nil {
		return app.log
	}
	raw := app.LogLevel
	if strings.TrimSpace(raw) == "" {
		raw = app.cfg.LogLevel()
	}
	lvl, err := parseLevel(raw)
	if err != nil {
		lvl = slog.LevelInfo
	}
	var lc *store.LogConfig
	if app.cfg != nil {
		lc = app.cfg.Log
	}
	app.log, app.logClose = newFileLogger(s.LogPath(), lc, lvl)
	if err != nil {
		app.log.Warn("ignoring log level", "err", err)
	}
	return app.log
}

func (app *App) closeLogger() {
	if app.logClose != nil {
		_ = app.logClose.Close()
	}
	app.log, app.logClose = nil, nil
}
