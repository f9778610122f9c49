package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"swipedo/internal/model"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound    = errors.New("todo not found")
	ErrNotSub      = errors.New("todo is not a sub-todo")
	ErrNestedSub   = errors.New("sub-todos cannot have sub-todos")
	ErrEmptyTitle  = errors.New("title is empty")
	errClosedStore = errors.New("store is closed")
)

// DB is an open todo database. Mutations are serialized and each one is
// followed by a snapshot to every watcher.
type DB struct {
	sql *sql.DB
	now func() time.Time

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	nextSub int
	subs    map[int]chan []model.Todo
}

// Open opens (creating if needed) the workspace database.
func (s Store) Open(ctx context.Context) (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	conn, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness
	// when the CLI and TUI touch the same workspace.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{
		sql:  conn,
		now:  func() time.Time { return time.Now().UTC() },
		done: make(chan struct{}),
		subs: map[int]chan []model.Todo{},
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			title TEXT NOT NULL,
			notes TEXT NOT NULL,
			done INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_parent ON todos(parent_id, rank);`,
		`INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', '1');`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database and every watch channel.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	close(db.done)
	for id, ch := range db.subs {
		close(ch)
		delete(db.subs, id)
	}
	db.mu.Unlock()
	return db.sql.Close()
}

const todoColumns = `id, parent_id, rank, title, notes, done, created_at_unixms, updated_at_unixms`

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (model.Todo, error) {
	var (
		t       model.Todo
		parent  string
		done    int
		created int64
		updated int64
	)
	if err := row.Scan(&t.ID, &parent, &t.Rank, &t.Title, &t.Notes, &done, &created, &updated); err != nil {
		return model.Todo{}, err
	}
	if parent != "" {
		p := parent
		t.ParentID = &p
	}
	t.Done = done != 0
	t.CreatedAt = time.UnixMilli(created).UTC()
	t.UpdatedAt = time.UnixMilli(updated).UTC()
	return t, nil
}

// List returns every todo, each top-level todo followed by its sub-todos.
func (db *DB) List(ctx context.Context) ([]model.Todo, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY rank, created_at_unixms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Ordered(out), nil
}

// Ordered sorts todos so each parent is followed by its children, both by
// rank. Orphaned sub-todos are listed at the end.
func Ordered(todos []model.Todo) []model.Todo {
	children := map[string][]model.Todo{}
	var top []model.Todo
	for _, t := range todos {
		if t.IsSub() {
			children[t.Parent()] = append(children[t.Parent()], t)
			continue
		}
		top = append(top, t)
	}
	byRank := func(xs []model.Todo) {
		sort.SliceStable(xs, func(i, j int) bool { return xs[i].Rank < xs[j].Rank })
	}
	byRank(top)
	out := make([]model.Todo, 0, len(todos))
	for _, t := range top {
		out = append(out, t)
		kids := children[t.ID]
		byRank(kids)
		out = append(out, kids...)
		delete(children, t.ID)
	}
	var orphanParents []string
	for pid := range children {
		orphanParents = append(orphanParents, pid)
	}
	sort.Strings(orphanParents)
	for _, pid := range orphanParents {
		kids := children[pid]
		byRank(kids)
		out = append(out, kids...)
	}
	return out
}

func (db *DB) Get(ctx context.Context, id string) (model.Todo, error) {
	row := db.sql.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, strings.TrimSpace(id))
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// NewTodo is the input to Add.
type NewTodo struct {
	Title    string
	Notes    string
	ParentID string
}

// Add appends a todo (or a sub-todo when ParentID is set) to the end of its
// sibling group.
func (db *DB) Add(ctx context.Context, in NewTodo) (model.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Todo{}, ErrEmptyTitle
	}
	parent := strings.TrimSpace(in.ParentID)
	if parent != "" {
		p, err := db.Get(ctx, parent)
		if err != nil {
			return model.Todo{}, err
		}
		if p.IsSub() {
			return model.Todo{}, ErrNestedSub
		}
	}
	id, err := newRandomID("todo")
	if err != nil {
		return model.Todo{}, err
	}
	now := db.now()
	err = db.mutate(ctx, func(tx *sql.Tx) error {
		rank, err := nextRank(ctx, tx, parent)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO todos(`+todoColumns+`) VALUES(?, ?, ?, ?, ?, 0, ?, ?)`,
			id, parent, rank, title, in.Notes, now.UnixMilli(), now.UnixMilli())
		return err
	})
	if err != nil {
		return model.Todo{}, err
	}
	return db.Get(ctx, id)
}

func nextRank(ctx context.Context, tx *sql.Tx, parent string) (int, error) {
	var top sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(rank) FROM todos WHERE parent_id = ?`, parent).Scan(&top); err != nil {
		return 0, err
	}
	if !top.Valid {
		return 0, nil
	}
	return int(top.Int64) + 1, nil
}

func (db *DB) SetDone(ctx context.Context, id string, done bool) error {
	return db.mutate(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, id, `UPDATE todos SET done = ?, updated_at_unixms = ? WHERE id = ?`,
			boolToInt(done), db.now().UnixMilli(), id)
	})
}

func (db *DB) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	return db.mutate(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, id, `UPDATE todos SET title = ?, updated_at_unixms = ? WHERE id = ?`,
			title, db.now().UnixMilli(), id)
	})
}

// Delete removes a todo and its sub-todos.
func (db *DB) Delete(ctx context.Context, id string) error {
	return db.mutate(ctx, func(tx *sql.Tx) error {
		if err := execOne(ctx, tx, id, `DELETE FROM todos WHERE id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE parent_id = ?`, id)
		return err
	})
}

// Promote turns a sub-todo into a top-level todo placed last.
func (db *DB) Promote(ctx context.Context, id string) error {
	t, err := db.Get(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsSub() {
		return fmt.Errorf("%w: %s", ErrNotSub, id)
	}
	return db.mutate(ctx, func(tx *sql.Tx) error {
		rank, err := nextRank(ctx, tx, "")
		if err != nil {
			return err
		}
		return execOne(ctx, tx, id, `UPDATE todos SET parent_id = '', rank = ?, updated_at_unixms = ? WHERE id = ?`,
			rank, db.now().UnixMilli(), id)
	})
}

func execOne(ctx context.Context, tx *sql.Tx, id, q string, args ...any) error {
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// mutate runs fn in a transaction and publishes a snapshot on success.
func (db *DB) mutate(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return errClosedStore
	}
	tx, err := db.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.publishLocked(ctx)
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
