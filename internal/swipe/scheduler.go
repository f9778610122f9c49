package swipe

import (
	"sync"
	"time"
)

// status is the outcome of one task step.
type status int

const (
	running status = iota
	finished
	cancelled
)

// Task is a unit of cooperative work advanced by a Scheduler.
type Task interface {
	step(dt time.Duration) status
}

type job struct {
	task Task
	then func()
}

// Scheduler advances tasks on the host's frame clock. It never starts
// goroutines; the host calls Advance from its own event loop.
type Scheduler struct {
	mu   sync.Mutex
	jobs []*job
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Go registers task. then, if non-nil, runs once the task finishes; it is
// skipped when the task is cancelled.
func (s *Scheduler) Go(task Task, then func()) {
	if task == nil {
		return
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, &job{task: task, then: then})
	s.mu.Unlock()
}

// Busy reports whether any task is still registered.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs) > 0
}

// Advance steps every registered task by dt. Tasks registered while stepping
// (including from continuations) first run on the next Advance.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()

	var keep []*job
	var thens []func()
	for _, j := range jobs {
		switch j.task.step(dt) {
		case running:
			keep = append(keep, j)
		case finished:
			if j.then != nil {
				thens = append(thens, j.then)
			}
		}
	}

	s.mu.Lock()
	s.jobs = append(keep, s.jobs...)
	s.mu.Unlock()

	for _, fn := range thens {
		fn()
	}
}

// group finishes when every child finished and is cancelled as soon as any
// child is.
type group struct {
	children []Task
	done     []bool
}

// All composes tasks into one awaitable group.
func All(tasks ...Task) Task {
	g := &group{}
	for _, t := range tasks {
		if t != nil {
			g.children = append(g.children, t)
		}
	}
	g.done = make([]bool, len(g.children))
	return g
}

func (g *group) step(dt time.Duration) status {
	out := finished
	for i, c := range g.children {
		if g.done[i] {
			continue
		}
		switch c.step(dt) {
		case cancelled:
			return cancelled
		case finished:
			g.done[i] = true
		default:
			out = running
		}
	}
	return out
}

type delay struct {
	remaining time.Duration
	alive     func() bool
}

// Delay finishes after d of advanced time.
func Delay(d time.Duration) Task {
	return &delay{remaining: d}
}

func (t *delay) step(dt time.Duration) status {
	if t.alive != nil && !t.alive() {
		return cancelled
	}
	t.remaining -= dt
	if t.remaining <= 0 {
		return finished
	}
	return running
}

// funcTask runs fn once on its first step, unless alive reports false.
type funcTask struct {
	fn    func()
	alive func() bool
}

func (t *funcTask) step(time.Duration) status {
	if t.alive != nil && !t.alive() {
		return cancelled
	}
	t.fn()
	return finished
}

// sequence runs tasks one after another.
type sequence struct {
	tasks []Task
}

func (q *sequence) step(dt time.Duration) status {
	for len(q.tasks) > 0 {
		switch q.tasks[0].step(dt) {
		case cancelled:
			return cancelled
		case running:
			return running
		}
		q.tasks = q.tasks[1:]
		// The remainder of this frame is not carried over.
		dt = 0
	}
	return finished
}
