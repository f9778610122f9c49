package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"swipedo/internal/model"
)

type WriteOptions struct {
	RenderOptions
	HTML      bool
	Overwrite bool
}

type WriteResult struct {
	Written string `json:"written"`
	Todos   int    `json:"todos"`
	Format  string `json:"format"`
}

// WriteList exports todos to path as markdown, or HTML when opt.HTML is set
// or path ends in .html.
func WriteList(todos []model.Todo, path string, opt WriteOptions) (WriteResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	asHTML := opt.HTML || ext == ".html" || ext == ".htm"

	md, n := renderList(todos, opt.RenderOptions)
	out, format := md, "markdown"
	if asHTML {
		title := opt.Title
		if strings.TrimSpace(title) == "" {
			title = "Todos"
		}
		h, err := RenderHTML(title, md)
		if err != nil {
			return WriteResult{}, err
		}
		out, format = h, "html"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WriteResult{}, err
		}
	}
	if err := writeFile(path, []byte(out), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: path, Todos: n, Format: format}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
