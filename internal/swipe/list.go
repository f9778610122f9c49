package swipe

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Item is one row as supplied by the renderer.
type Item struct {
	Key     string
	Actions []Action
}

// List is the arena for one rendered list: one Scheduler, one Coordinator
// and a Machine per key. Independent lists never share open state.
type List struct {
	mu       sync.Mutex
	opts     Options
	seed     uint64
	machines map[string]*Machine
}

// NewList builds an arena. Scheduler and Coordinator in opts are created if
// unset; Rand is ignored in favour of a per-row generator.
func NewList(opts Options) *List {
	opts = opts.withDefaults()
	seed := uint64(time.Now().UnixNano())
	if opts.Rand != nil {
		seed = opts.Rand.Uint64()
	}
	opts.Rand = nil
	return &List{opts: opts, seed: seed, machines: map[string]*Machine{}}
}

func (l *List) Scheduler() *Scheduler     { return l.opts.Scheduler }
func (l *List) Coordinator() *Coordinator { return l.opts.Coordinator }

// Sync reconciles rows with items: new keys are mounted, existing ones get
// the latest actions and keys no longer present are disposed.
func (l *List) Sync(items []Item) {
	l.mu.Lock()
	seen := make(map[string]bool, len(items))
	var update []*Machine
	var updateActions [][]Action
	for _, it := range items {
		if seen[it.Key] {
			continue
		}
		seen[it.Key] = true
		if m, ok := l.machines[it.Key]; ok {
			update = append(update, m)
			updateActions = append(updateActions, it.Actions)
			continue
		}
		l.machines[it.Key] = l.mountLocked(it)
	}
	var gone []*Machine
	for k, m := range l.machines {
		if !seen[k] {
			gone = append(gone, m)
			delete(l.machines, k)
		}
	}
	l.mu.Unlock()

	for i, m := range update {
		m.SetActions(updateActions[i])
	}
	for _, m := range gone {
		m.Dispose()
	}
}

func (l *List) mountLocked(it Item) *Machine {
	opts := l.opts
	h := fnv.New64a()
	_, _ = h.Write([]byte(it.Key))
	opts.Rand = rand.New(rand.NewPCG(l.seed, h.Sum64()))
	return NewMachine(it.Key, it.Actions, opts)
}

// Remove disposes the row for key, if mounted.
func (l *List) Remove(key string) {
	l.mu.Lock()
	m, ok := l.machines[key]
	delete(l.machines, key)
	l.mu.Unlock()
	if ok {
		m.Dispose()
	}
}

// Machine returns the row for key.
func (l *List) Machine(key string) (*Machine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.machines[key]
	return m, ok
}

// Keys returns mounted keys in sorted order.
func (l *List) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.machines))
	for k := range l.machines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetScreenWidth updates every row's screen width.
func (l *List) SetScreenWidth(w float64) {
	l.mu.Lock()
	l.opts.Geometry.ScreenWidth = w
	ms := l.machinesLocked()
	l.mu.Unlock()
	for _, m := range ms {
		m.SetScreenWidth(w)
	}
}

func (l *List) machinesLocked() []*Machine {
	out := make([]*Machine, 0, len(l.machines))
	for _, m := range l.machines {
		out = append(out, m)
	}
	return out
}

// Advance steps every running animation by dt.
func (l *List) Advance(dt time.Duration) { l.opts.Scheduler.Advance(dt) }

// Busy reports whether any animation or pulse is still pending.
func (l *List) Busy() bool { return l.opts.Scheduler.Busy() }

// CloseAll closes whichever row is open (e.g. on scroll).
func (l *List) CloseAll() { l.opts.Coordinator.Close() }

// InterceptTap closes the open row, if any; true means the tap was consumed.
func (l *List) InterceptTap() bool { return l.opts.Coordinator.InterceptTap() }

// OpenKey returns the currently open key.
func (l *List) OpenKey() (string, bool) { return l.opts.Coordinator.OpenKey() }

// Snapshots returns every row's state keyed by item key.
func (l *List) Snapshots() map[string]State {
	l.mu.Lock()
	ms := l.machinesLocked()
	l.mu.Unlock()
	out := make(map[string]State, len(ms))
	for _, m := range ms {
		out[m.Key()] = m.Snapshot()
	}
	return out
}

// Dispose unmounts every row.
func (l *List) Dispose() {
	l.mu.Lock()
	ms := l.machinesLocked()
	l.machines = map[string]*Machine{}
	l.mu.Unlock()
	for _, m := range ms {
		m.Dispose()
	}
}
