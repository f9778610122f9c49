package swipe

import "sync"

// Coordinator tracks which row of one list, if any, is open. Rows observe it
// and close themselves when another key takes over.
//
// Observers run after the change, serialized in mutation order. They receive
// the new state as arguments and must not call back into the Coordinator.
type Coordinator struct {
	mu      sync.Mutex
	deliver sync.Mutex

	key     string
	open    bool
	nextID  int
	observe map[int]func(key string, open bool)
}

func NewCoordinator() *Coordinator {
	return &Coordinator{observe: map[int]func(string, bool){}}
}

// OpenKey returns the currently open key.
func (c *Coordinator) OpenKey() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key, c.open
}

// Open makes key the open row. It is a no-op if key is already open.
func (c *Coordinator) Open(key string) {
	c.mu.Lock()
	if c.open && c.key == key {
		c.mu.Unlock()
		return
	}
	c.key, c.open = key, true
	c.notifyLocked()
}

// Close clears the open row. It is a no-op if nothing is open.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.key, c.open = "", false
	c.notifyLocked()
}

// Release clears the open row only if it is key.
func (c *Coordinator) Release(key string) {
	c.mu.Lock()
	if !c.open || c.key != key {
		c.mu.Unlock()
		return
	}
	c.key, c.open = "", false
	c.notifyLocked()
}

// ReleaseUnless clears the open row if it is key and holds reports false.
// holds runs under the coordinator lock, so no other Open can interleave
// between the check and the release; it may take a row lock but must not
// call back into the Coordinator.
func (c *Coordinator) ReleaseUnless(key string, holds func() bool) {
	c.mu.Lock()
	if !c.open || c.key != key || holds() {
		c.mu.Unlock()
		return
	}
	c.key, c.open = "", false
	c.notifyLocked()
}

// InterceptTap closes the open row, if any, and reports whether the tap was
// consumed doing so.
func (c *Coordinator) InterceptTap() bool {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return false
	}
	c.key, c.open = "", false
	c.notifyLocked()
	return true
}

// Subscribe registers fn for change notifications.
func (c *Coordinator) Subscribe(fn func(key string, open bool)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observe[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observe, id)
			c.mu.Unlock()
		})
	}
}

// notifyLocked must be called with c.mu held; it releases it. Taking the
// delivery lock before dropping c.mu keeps deliveries in mutation order.
func (c *Coordinator) notifyLocked() {
	key, open := c.key, c.open
	fns := make([]func(string, bool), 0, len(c.observe))
	for _, fn := range c.observe {
		fns = append(fns, fn)
	}
	c.deliver.Lock()
	c.mu.Unlock()
	defer c.deliver.Unlock()
	for _, fn := range fns {
		fn(key, open)
	}
}
