package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestMarkdownStyle_EnvOverrides(t *testing.T) {
	cases := []struct {
		mdStyle, theme, colorfgbg string
		want                      string
	}{
		{mdStyle: "notty", want: "notty"},
		{mdStyle: "LIGHT", theme: "dark", want: "light"},
		{theme: "dark", want: "dark"},
		{theme: "light", want: "light"},
		{colorfgbg: "0;15", want: "light"},
		{colorfgbg: "15;0", want: "dark"},
	}
	for _, tc := range cases {
		t.Setenv("SWIPEDO_TUI_MD_STYLE", tc.mdStyle)
		t.Setenv("SWIPEDO_TUI_THEME", tc.theme)
		t.Setenv("COLORFGBG", tc.colorfgbg)
		if got := markdownStyle(); got != tc.want {
			t.Fatalf("md=%q theme=%q fgbg=%q: got %q want %q", tc.mdStyle, tc.theme, tc.colorfgbg, got, tc.want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Setenv("SWIPEDO_TUI_MD_STYLE", "notty")
	if got := RenderMarkdown("   \n", 40); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	out := xansi.Strip(RenderMarkdown("# Groceries\n\n- milk\n- eggs", 40))
	for _, want := range []string{"Groceries", "milk", "eggs"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newlines trimmed")
	}
}
