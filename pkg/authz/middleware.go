package authz

import "net/http"

// gate holds the handlers rendered for the three query outcomes.
type gate struct {
	denied  http.Handler
	pending http.Handler
}

// GateOption configures the capability gate middleware.
type GateOption func(*gate)

// WithDeniedHandler sets the handler rendered on a definitive denial.
// Defaults to 403 Forbidden.
func WithDeniedHandler(h http.Handler) GateOption {
	return func(g *gate) {
		if h != nil {
			g.denied = h
		}
	}
}

// WithPendingHandler sets the handler rendered while the decision is
// pending. Defaults to 503 with Retry-After so clients poll instead of
// caching a denial.
func WithPendingHandler(h http.Handler) GateOption {
	return func(g *gate) {
		if h != nil {
			g.pending = h
		}
	}
}

func newGate(opts ...GateOption) *gate {
	g := &gate{
		denied: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}),
		pending: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Authorization pending", http.StatusServiceUnavailable)
		}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gate) serve(d Decision, next http.Handler, w http.ResponseWriter, r *http.Request) {
	switch {
	case d.Granted:
		next.ServeHTTP(w, r)
	case d.Pending:
		g.pending.ServeHTTP(w, r)
	default:
		g.denied.ServeHTTP(w, r)
	}
}

// Gate protects a handler behind one capability: the wrapped handler runs
// only when the evaluator grants module/action; otherwise the denial or
// pending fallback is rendered.
func Gate(e *Evaluator, module, action string, opts ...GateOption) func(http.Handler) http.Handler {
	g := newGate(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(e.HasPermission(module, action), next, w, r)
		})
	}
}

// GateAny protects a handler behind a set of capabilities of which at
// least one must be granted.
func GateAny(e *Evaluator, caps []Capability, opts ...GateOption) func(http.Handler) http.Handler {
	g := newGate(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(e.HasAnyPermission(caps...), next, w, r)
		})
	}
}

// GateAll protects a handler behind a set of capabilities which must all
// be granted.
func GateAll(e *Evaluator, caps []Capability, opts ...GateOption) func(http.Handler) http.Handler {
	g := newGate(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(e.HasAllPermissions(caps...), next, w, r)
		})
	}
}
