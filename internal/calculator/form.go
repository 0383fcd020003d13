package calculator

// Snapshot is the coerced input behind a displayed result, one slot per
// field in form order. Absent fields are stored as 0, so two snapshots are
// equal exactly when every field matches after that coercion.
type Snapshot [len(fields)]float64

// Snapshot coerces the input for staleness checks.
func (in Input) Snapshot() Snapshot {
	var s Snapshot
	for i, f := range fields {
		s[i] = f.ref(&in).Or(0)
	}
	return s
}

// Diff returns the form names of fields that differ between two snapshots.
func (s Snapshot) Diff(other Snapshot) []string {
	var changed []string
	for i, f := range fields {
		if s[i] != other[i] {
			changed = append(changed, f.form)
		}
	}
	return changed
}

// State is where the form stands relative to its last computation.
type State int

const (
	// Unevaluated: nothing has been computed since the page loaded.
	Unevaluated State = iota
	// Stale: a result is shown but the inputs have moved away from it.
	Stale
	// Current: the inputs match the shown result exactly.
	Current
)

func (s State) String() string {
	switch s {
	case Unevaluated:
		return "unevaluated"
	case Stale:
		return "stale"
	case Current:
		return "current"
	default:
		return "unknown"
	}
}

// Evaluated reports whether a result has been computed.
func (s State) Evaluated() bool {
	return s != Unevaluated
}

// RecomputeEnabled reports whether the calculate control should be clickable.
func (s State) RecomputeEnabled() bool {
	return s != Current
}

// Form tracks whether the displayed result still matches the inputs.
// The zero value is Unevaluated. There is no terminal state; Reset is a reload.
type Form struct {
	state    State
	snapshot Snapshot
}

// State returns the current state.
func (f *Form) State() State {
	return f.state
}

// Record stores the snapshot of a fresh computation. The inputs match it by definition.
func (f *Form) Record(s Snapshot) {
	f.snapshot = s
	f.state = Current
}

// Check compares the inputs against the recorded snapshot after any change.
func (f *Form) Check(s Snapshot) State {
	if f.state == Unevaluated {
		return f.state
	}
	if s == f.snapshot {
		f.state = Current
	} else {
		f.state = Stale
	}
	return f.state
}

// Snapshot returns the recorded snapshot, if any.
func (f *Form) Snapshot() (Snapshot, bool) {
	return f.snapshot, f.state.Evaluated()
}

// Reset returns the form to Unevaluated.
func (f *Form) Reset() {
	*f = Form{}
}
