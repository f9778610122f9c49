package cli

import (
	"context"
	"fmt"
	"strings"

	"swipedo/internal/docs"
	"swipedo/internal/publish"
	"swipedo/internal/store"
	"swipedo/internal/tui"

	"github.com/spf13/cobra"
)

type exportEnvelope struct {
	Data publish.WriteResult `json:"data"`
}

func (e exportEnvelope) Text() string {
	return fmt.Sprintf("wrote %d todos to %s (%s)", e.Data.Todos, e.Data.Written, e.Data.Format)
}

func newExportCmd(app *App) *cobra.Command {
	var to, title string
	var includeDone, includeNotes, asHTML, overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the list as a markdown (or HTML) checklist",
		Example: strings.TrimSpace(`
  swipedo export --to todos.md
  swipedo export --to todos.html --done --notes --overwrite
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
				todos, err := db.List(ctx)
				if err != nil {
					return err
				}
				res, err := publish.WriteList(todos, to, publish.WriteOptions{
					RenderOptions: publish.RenderOptions{Title: title, IncludeDone: includeDone, IncludeNotes: includeNotes},
					HTML:          asHTML,
					Overwrite:     overwrite,
				})
				if err != nil {
					return err
				}
				app.log.Info("todos exported", "path", res.Written, "format", res.Format, "todos", res.Todos)
				return writeOut(cmd, app, exportEnvelope{Data: res})
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output file (.md, or .html for HTML)")
	cmd.Flags().StringVar(&title, "title", "", "Document title (default: Todos)")
	cmd.Flags().BoolVar(&includeDone, "done", false, "Include completed todos")
	cmd.Flags().BoolVar(&includeNotes, "notes", false, "Include notes under each todo")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Write HTML regardless of the file extension")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

type docsTopics struct {
	Data []docs.Topic `json:"data"`
}

func (d docsTopics) Text() string {
	var b strings.Builder
	for _, t := range d.Data {
		fmt.Fprintf(&b, "%-10s %s\n", t.Name, t.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func newDocsCmd(app *App) *cobra.Command {
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in help topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, docsTopics{Data: docs.List()})
			}
			body, ok := docs.Get(args[0])
			if !ok {
				return writeErr(cmd, errUsage("unknown topic %q (have: %s)", args[0], strings.Join(docs.Topics(), ", ")))
			}
			if render {
				body = tui.RenderMarkdown(body, width)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(body, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render as terminal markdown")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}
