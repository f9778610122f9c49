package publish

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"swipedo/internal/model"
)

type RenderOptions struct {
	Title        string
	IncludeDone  bool
	IncludeNotes bool
}

// RenderListMarkdown renders todos as a GFM task list. Sub-todos are nested
// under their parent; todos must already be in list order.
func RenderListMarkdown(todos []model.Todo, opt RenderOptions) string {
	md, _ := renderList(todos, opt)
	return md
}

func renderList(todos []model.Todo, opt RenderOptions) (string, int) {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(opt.Title)
	if title == "" {
		title = "Todos"
	}
	writeLn("# " + title)
	writeLn("")

	skipped := map[string]bool{}
	n := 0
	for _, t := range todos {
		if t.IsSub() && skipped[t.Parent()] {
			continue
		}
		if t.Done && !opt.IncludeDone {
			skipped[t.ID] = true
			continue
		}
		indent := ""
		if t.IsSub() {
			indent = "  "
		}
		box := " "
		if t.Done {
			box = "x"
		}
		writeLn(fmt.Sprintf("%s- [%s] %s", indent, box, escapeInline(t.Title)))
		if opt.IncludeNotes {
			for _, ln := range noteLines(t.Notes) {
				writeLn(indent + "  > " + ln)
			}
		}
		n++
	}
	if n == 0 {
		writeLn("_Nothing to do._")
	}
	return buf.String(), n
}

// TodoMarkdown renders a single todo as a small document.
func TodoMarkdown(t model.Todo) string {
	var b strings.Builder
	b.WriteString("# ")
	if t.Done {
		b.WriteString("~~" + t.Title + "~~")
	} else {
		b.WriteString(t.Title)
	}
	b.WriteString("\n\n")
	if notes := strings.TrimSpace(t.Notes); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "`%s`", t.ID)
	if t.IsSub() {
		fmt.Fprintf(&b, " · sub-todo of `%s`", t.Parent())
	}
	b.WriteByte('\n')
	return b.String()
}

func noteLines(notes string) []string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	return strings.Split(notes, "\n")
}

// escapeInline keeps a title from opening a new block or task box.
func escapeInline(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "#") {
		s = `\` + s
	}
	return s
}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML stays escaped: no html.WithUnsafe().
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

// RenderHTML converts markdown to a standalone HTML page.
func RenderHTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &body); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", htmlEscape(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
