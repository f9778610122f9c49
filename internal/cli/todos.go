package cli

import (
	"context"
	"fmt"
	"strings"

	"swipedo/internal/model"
	"swipedo/internal/publish"
	"swipedo/internal/store"
	"swipedo/internal/tui"

	"github.com/spf13/cobra"
)

// todoList renders as an indented checklist for --format text.
type todoList struct {
	Data []model.Todo `json:"data"`
}

func (l todoList) Text() string {
	if len(l.Data) == 0 {
		return "(no todos)"
	}
	var b strings.Builder
	for i, t := range l.Data {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(todoLine(t))
	}
	return b.String()
}

type todoEnvelope struct {
	Data model.Todo `json:"data"`
}

func (e todoEnvelope) Text() string { return todoLine(e.Data) }

func todoLine(t model.Todo) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	indent := ""
	if t.IsSub() {
		indent = "  "
	}
	return fmt.Sprintf("%s%s %s  (%s)", indent, box, t.Title, t.ID)
}

// withDB opens the store for one command and closes it afterwards.
func withDB(cmd *cobra.Command, app *App, fn func(ctx context.Context, db *store.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, _, err := openDB(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer db.Close()
	if err := fn(ctx, db); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func newAddCmd(app *App) *cobra.Command {
	var parentID string
	var notes string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo (or a sub-todo with --parent)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
				t, err := db.Add(ctx, store.NewTodo{Title: title, Notes: notes, ParentID: parentID})
				if err != nil {
					return storeErr(parentID, err)
				}
				app.log.Info("todo added", "id", t.ID, "parent", t.Parent())
				return writeOut(cmd, app, todoEnvelope{Data: t})
			})
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent todo id (creates a sub-todo)")
	cmd.Flags().StringVar(&notes, "notes", "", "Markdown notes")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos (sub-todos follow their parent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
				todos, err := db.List(ctx)
				if err != nil {
					return err
				}
				out := make([]model.Todo, 0, len(todos))
				for _, t := range todos {
					if pendingOnly && t.Done {
						continue
					}
					out = append(out, t)
				}
				return writeOut(cmd, app, todoList{Data: out})
			})
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Hide completed todos")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:     "show <todo-id>",
		Short:   "Show a todo",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
				t, err := db.Get(ctx, id)
				if err != nil {
					return storeErr(id, err)
				}
				if render {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(publish.TodoMarkdown(t), width))
					return err
				}
				return writeOut(cmd, app, todoEnvelope{Data: t})
			})
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render title and notes as terminal markdown")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

// mutateAndShow applies fn to id and prints the updated todo.
func mutateAndShow(cmd *cobra.Command, app *App, id string, event string, fn func(ctx context.Context, db *store.DB) error) error {
	id = strings.TrimSpace(id)
	return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
		if err := fn(ctx, db); err != nil {
			return storeErr(id, err)
		}
		t, err := db.Get(ctx, id)
		if err != nil {
			return storeErr(id, err)
		}
		app.log.Info(event, "id", id)
		return writeOut(cmd, app, todoEnvelope{Data: t})
	})
}

func newDoneCmd(app *App) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <todo-id>",
		Short: "Mark a todo done (or not done with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAndShow(cmd, app, args[0], "todo done", func(ctx context.Context, db *store.DB) error {
				return db.SetDone(ctx, strings.TrimSpace(args[0]), !undo)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark as not done")
	return cmd
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <todo-id> <title>",
		Short: "Change a todo's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[1:], " ")
			return mutateAndShow(cmd, app, args[0], "todo renamed", func(ctx context.Context, db *store.DB) error {
				return db.Rename(ctx, strings.TrimSpace(args[0]), title)
			})
		},
	}
}

func newPromoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <todo-id>",
		Short: "Turn a sub-todo into a top-level todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAndShow(cmd, app, args[0], "todo promoted", func(ctx context.Context, db *store.DB) error {
				return db.Promote(ctx, strings.TrimSpace(args[0]))
			})
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <todo-id>",
		Short:   "Delete a todo and its sub-todos",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withDB(cmd, app, func(ctx context.Context, db *store.DB) error {
				if err := db.Delete(ctx, id); err != nil {
					return storeErr(id, err)
				}
				app.log.Info("todo deleted", "id", id)
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
			})
		},
	}
}
