// Package docs holds the help topics shipped inside the binary.
package docs

import (
	"bufio"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var content embed.FS

// Topic is one help page: Name is what `swipedo docs <name>` takes, Title
// is the page's first heading.
type Topic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// List returns every topic sorted by name.
func List() []Topic {
	entries, err := fs.ReadDir(content, "content")
	if err != nil {
		return nil
	}
	out := make([]Topic, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		body, _ := Get(name)
		out = append(out, Topic{Name: name, Title: heading(body, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Topics returns just the topic names.
func Topics() []string {
	list := List()
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	return names
}

// Get returns the markdown for name, matched case-insensitively.
func Get(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return "", false
	}
	b, err := content.ReadFile("content/" + name + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}

func heading(md, fallback string) string {
	sc := bufio.NewScanner(strings.NewReader(md))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return fallback
}
