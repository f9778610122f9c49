package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"swipedo/internal/model"
	"swipedo/internal/store"
	"swipedo/internal/swipe"
)

type todoItem struct {
	todo model.Todo
}

func (it todoItem) FilterValue() string { return it.todo.Title }
func (it todoItem) Title() string       { return it.todo.Title }

type opKind int

const (
	opSetDone opKind = iota
	opPromote
	opDelete
	opAdd
	opRename
)

func (k opKind) String() string {
	switch k {
	case opSetDone:
		return "done"
	case opPromote:
		return "promote"
	case opDelete:
		return "delete"
	case opAdd:
		return "add"
	case opRename:
		return "rename"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// storeOp is a mutation requested by a swipe action or the input line. Ops
// are applied off the update loop; the store's watch feed brings the result
// back.
type storeOp struct {
	kind   opKind
	id     string
	done   bool
	title  string
	parent string
}

func (op storeOp) apply(ctx context.Context, db *store.DB) error {
	switch op.kind {
	case opSetDone:
		return db.SetDone(ctx, op.id, op.done)
	case opPromote:
		return db.Promote(ctx, op.id)
	case opDelete:
		return db.Delete(ctx, op.id)
	case opAdd:
		_, err := db.Add(ctx, store.NewTodo{Title: op.title, ParentID: op.parent})
		return err
	case opRename:
		return db.Rename(ctx, op.id, op.title)
	}
	return fmt.Errorf("unknown op %s", op.kind)
}

type pulse struct {
	pattern swipe.Pattern
	at      time.Time
}

// shared is the state swipe callbacks and haptics write into. Callbacks run
// inside engine calls made from Update, so they cannot return commands.
type shared struct {
	now func() time.Time

	mu       sync.Mutex
	ops      []storeOp
	deleting map[string]bool
	last     pulse
	pulses   int
}

func newShared() *shared {
	return &shared{now: time.Now, deleting: map[string]bool{}}
}

func (s *shared) push(op storeOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op.kind == opDelete {
		s.deleting[op.id] = true
	}
	s.ops = append(s.ops, op)
}

func (s *shared) drain() []storeOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops
}

func (s *shared) isDeleting(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting[id]
}

func (s *shared) clearDeleting(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleting, id)
}

// forgetGone drops delete marks for ids the store no longer has.
func (s *shared) forgetGone(present map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.deleting {
		if !present[id] {
			delete(s.deleting, id)
		}
	}
}

func (s *shared) recordPulse(p swipe.Pattern, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = pulse{pattern: p, at: at}
	s.pulses++
}

func (s *shared) lastPulse() pulse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// rowActions builds the tray for one todo. Top-level todos toggle done;
// sub-todos can be promoted. Delete is always last, so a deep swipe deletes.
func rowActions(t model.Todo, sh *shared) []swipe.Action {
	id := t.ID
	first := swipe.Nondestructive{Label: "done", OnInvoke: func() {
		sh.push(storeOp{kind: opSetDone, id: id, done: true})
	}}
	switch {
	case t.IsSub():
		first = swipe.Nondestructive{Label: "promote", OnInvoke: func() {
			sh.push(storeOp{kind: opPromote, id: id})
		}}
	case t.Done:
		first = swipe.Nondestructive{Label: "undo", OnInvoke: func() {
			sh.push(storeOp{kind: opSetDone, id: id, done: false})
		}}
	}
	return []swipe.Action{
		first,
		swipe.Destructive{Label: "delete", OnInvoke: func() {
			sh.push(storeOp{kind: opDelete, id: id})
		}},
	}
}
