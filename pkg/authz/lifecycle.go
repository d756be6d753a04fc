package authz

import "sync"

// State is the evaluator's lifecycle state.
type State string

const (
	// StateUninitialized means no load has been attempted yet.
	StateUninitialized State = "uninitialized"
	// StateLoading means a load is in flight. Queries stay pending until
	// the first snapshot lands; later reloads serve the previous snapshot.
	StateLoading State = "loading"
	// StateReady means a snapshot is installed and queries are served.
	StateReady State = "ready"
	// StateError means the last load failed. Queries fail closed until a
	// caller retries; the evaluator never retries on its own.
	StateError State = "error"
)

// lifecycleTransitions enumerates the legal state changes:
// uninitialized -> loading -> ready|error, with ready and error both
// re-entering loading on the next input change. A superseded load firing
// loading while another is in flight is legal too.
var lifecycleTransitions = map[State][]State{
	StateUninitialized: {StateLoading},
	StateLoading:       {StateLoading, StateReady, StateError},
	StateReady:         {StateLoading},
	StateError:         {StateLoading},
}

// lifecycle is a minimal guarded state machine over the evaluator states.
type lifecycle struct {
	mu    sync.RWMutex
	state State
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: StateUninitialized}
}

func (l *lifecycle) current() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// to transitions into next if the transition is legal and reports whether
// it happened.
func (l *lifecycle) to(next State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, allowed := range lifecycleTransitions[l.state] {
		if allowed == next {
			l.state = next
			return true
		}
	}
	return false
}
