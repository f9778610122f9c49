package swipe

// Action is one button in a row's tray. The set of implementations is closed:
// Destructive and Nondestructive (or pointers to them).
type Action interface {
	ActionLabel() string
	isAction()
}

// Nondestructive actions fire immediately and the row springs back.
type Nondestructive struct {
	Label    string
	OnInvoke func()
}

func (a Nondestructive) ActionLabel() string { return a.Label }
func (Nondestructive) isAction()             {}

// Destructive actions play the exit sequence before firing. The caller is
// expected to remove the row from the list in OnInvoke.
type Destructive struct {
	Label    string
	OnInvoke func()
}

func (a Destructive) ActionLabel() string { return a.Label }
func (Destructive) isAction()             {}

// classify returns the callback and whether the exit sequence applies.
func classify(a Action) (fn func(), destructive bool) {
	switch v := a.(type) {
	case Destructive:
		return v.OnInvoke, true
	case *Destructive:
		if v == nil {
			return nil, true
		}
		return v.OnInvoke, true
	case Nondestructive:
		return v.OnInvoke, false
	case *Nondestructive:
		if v == nil {
			return nil, false
		}
		return v.OnInvoke, false
	}
	return nil, false
}

// IsDestructive reports whether a plays the exit sequence.
func IsDestructive(a Action) bool {
	_, d := classify(a)
	return d
}
