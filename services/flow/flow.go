package flow

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// State of the details overlay. Sub-flows (trailer, streaming, episodes,
// share sheet) are only reachable from the open overlay.
type State string

const (
	StateClosed    State = "closed"
	StateOpen      State = "open"
	StateTrailer   State = "trailer"
	StateStreaming State = "streaming"
	StateEpisodes  State = "episodes"
	StateShare     State = "share"
)

type Action string

const (
	ActionOpen          Action = "open"
	ActionClose         Action = "close"
	ActionPlayTrailer   Action = "play_trailer"
	ActionOpenStreaming Action = "open_streaming"
	ActionOpenEpisodes  Action = "open_episodes"
	ActionOpenShare     Action = "open_share"
	ActionBack          Action = "back"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(s)) {
	case ActionOpen, ActionClose, ActionPlayTrailer, ActionOpenStreaming,
		ActionOpenEpisodes, ActionOpenShare, ActionBack:
		return Action(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// transitions maps (state, action) to the next state. Anything absent is an
// invalid transition.
var transitions = map[State]map[Action]State{
	StateClosed: {
		ActionOpen: StateOpen,
	},
	StateOpen: {
		ActionClose:         StateClosed,
		ActionPlayTrailer:   StateTrailer,
		ActionOpenStreaming: StateStreaming,
		ActionOpenEpisodes:  StateEpisodes,
		ActionOpenShare:     StateShare,
	},
	StateTrailer: {
		ActionBack:  StateOpen,
		ActionClose: StateClosed,
	},
	StateStreaming: {
		ActionBack:  StateOpen,
		ActionClose: StateClosed,
	},
	StateEpisodes: {
		ActionBack:  StateOpen,
		ActionClose: StateClosed,
	},
	StateShare: {
		ActionBack:  StateOpen,
		ActionClose: StateClosed,
	},
}

// Transition is one accepted dispatch, kept in the bounded history.
type Transition struct {
	From   State
	Action Action
	To     State
	At     time.Time
}

const historyLimit = 50

// Machine drives one overlay. Dispatch rejects guarded-invalid transitions
// and keeps a bounded history of accepted ones for debugging.
type Machine struct {
	mux     sync.Mutex
	state   State
	history []Transition
	now     func() time.Time
}

func NewMachine() *Machine {
	return &Machine{
		state: StateClosed,
		now:   time.Now,
	}
}

func (m *Machine) State() State {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.state
}

func (m *Machine) Dispatch(a Action) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	next, ok := transitions[m.state][a]
	if !ok {
		return errors.Errorf("invalid transition: %v from state %v", a, m.state)
	}
	m.history = append(m.history, Transition{
		From:   m.state,
		Action: a,
		To:     next,
		At:     m.now(),
	})
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	m.state = next
	return nil
}

// History returns a copy of the recent accepted transitions, oldest first.
func (m *Machine) History() []Transition {
	m.mux.Lock()
	defer m.mux.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Registry hands out one machine per overlay id.
type Registry struct {
	mux      sync.Mutex
	machines map[string]*Machine
}

func NewRegistry() *Registry {
	return &Registry{
		machines: map[string]*Machine{},
	}
}

func (r *Registry) Get(id string) *Machine {
	r.mux.Lock()
	defer r.mux.Unlock()
	m, ok := r.machines[id]
	if !ok {
		m = NewMachine()
		r.machines[id] = m
	}
	return m
}

// Peek returns the machine for id without creating one.
func (r *Registry) Peek(id string) (*Machine, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	m, ok := r.machines[id]
	return m, ok
}

func (r *Registry) Drop(id string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.machines, id)
}
