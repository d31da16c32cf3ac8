package gate

import "sync"

// State of the blocking overlay.
type State string

const (
	Hidden State = "hidden"
	Shown  State = "shown"
)

// Directives tell the client how to render the overlay while shown. The
// overlay is modal: no scrolling behind it, focus stays inside it, and
// Escape does not dismiss it.
type Directives struct {
	State          State `json:"state"`
	LockScroll     bool  `json:"lock_scroll"`
	TrapFocus      bool  `json:"trap_focus"`
	SuppressEscape bool  `json:"suppress_escape"`
	Dismissible    bool  `json:"dismissible"`
}

// Gate is the guarded two-state machine behind the overlay. Transitions to
// Hidden are rejected while the overlay is required; any such attempt snaps
// the state back to Shown.
type Gate struct {
	mu    sync.Mutex
	state State
}

func New() *Gate {
	return &Gate{state: Hidden}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Apply reconciles the gate with the current overlay requirement and returns
// the resulting directives.
func (g *Gate) Apply(overlayRequired bool) Directives {
	g.mu.Lock()
	defer g.mu.Unlock()

	if overlayRequired {
		g.state = Shown
	} else {
		g.state = Hidden
	}
	return g.directivesLocked()
}

// RequestHide is a client attempt to dismiss the overlay. It succeeds only
// when the overlay is not required; otherwise the state is forced back to
// Shown and the attempt reports failure.
func (g *Gate) RequestHide(overlayRequired bool) (Directives, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if overlayRequired {
		g.state = Shown
		return g.directivesLocked(), false
	}
	g.state = Hidden
	return g.directivesLocked(), true
}

func (g *Gate) directivesLocked() Directives {
	shown := g.state == Shown
	return Directives{
		State:          g.state,
		LockScroll:     shown,
		TrapFocus:      shown,
		SuppressEscape: shown,
		Dismissible:    !shown,
	}
}
