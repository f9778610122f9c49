package store

import (
	"context"

	"swipedo/internal/model"
)

// Watch returns a channel that receives the full ordered todo list after
// every mutation, starting with the current list. A slow reader only ever
// sees the newest snapshot. The channel closes when ctx is done or the
// database is closed.
func (db *DB) Watch(ctx context.Context) (<-chan []model.Todo, error) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil, errClosedStore
	}
	// Snapshot and register under the mutation lock so no change slips between.
	initial, err := db.List(ctx)
	if err != nil {
		db.mu.Unlock()
		return nil, err
	}
	ch := make(chan []model.Todo, 1)
	ch <- initial
	id := db.nextSub
	db.nextSub++
	db.subs[id] = ch
	db.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-db.done:
		}
		db.mu.Lock()
		defer db.mu.Unlock()
		if c, ok := db.subs[id]; ok {
			delete(db.subs, id)
			close(c)
		}
	}()
	return ch, nil
}

func (db *DB) publishLocked(ctx context.Context) {
	if len(db.subs) == 0 {
		return
	}
	todos, err := db.List(ctx)
	if err != nil {
		return
	}
	for _, ch := range db.subs {
		// Replace a pending snapshot rather than block.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- todos:
		default:
		}
	}
}
