package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style + wrap width. WithAutoStyle can block on terminal
	// queries, so a fixed style is resolved up front and renderers are reused.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for the terminal at the given wrap width. On any
// renderer error the source is returned unchanged.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SWIPEDO_TUI_MD_STYLE"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	case "notty":
		return "notty"
	}
	if dark, ok := themePreference(); ok {
		if dark {
			return "dark"
		}
		return "light"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(styleName string) ansi.StyleConfig {
	switch styleName {
	case "light":
		cfg := styles.LightStyleConfig
		applyMarkdownPalette(&cfg, false)
		return cfg
	case "notty":
		return styles.NoTTYStyleConfig
	default:
		cfg := styles.DarkStyleConfig
		applyMarkdownPalette(&cfg, true)
		return cfg
	}
}

// applyMarkdownPalette keeps headings and body text on the row foreground and
// trims the document margin so notes line up with the list.
func applyMarkdownPalette(cfg *ansi.StyleConfig, dark bool) {
	fg := mdColor(colorSurfaceFg, dark)
	cfg.Heading.Color = fg
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = nil
	cfg.Text.Color = fg
	cfg.Code.Color = fg
	cfg.Code.BackgroundColor = mdColor(colorControlBg, dark)
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = mdBoolPtr(false)
	zero := uint(0)
	cfg.Document.Margin = &zero
}

func mdColor(c lipgloss.AdaptiveColor, dark bool) *string {
	if dark {
		return mdStrPtr(c.Dark)
	}
	return mdStrPtr(c.Light)
}

func mdStrPtr(s string) *string { return &s }
func mdBoolPtr(b bool) *bool    { return &b }
