package identify

import (
	"fmt"
	"sort"

	"github.com/signalnine/dilemma/agent"
)

// ResolutionError reports a predicted identity with no value table.
type ResolutionError struct {
	ID    int
	Known []int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no value table for identity %d (known: %v)", e.ID, e.Known)
}

// Option configures a Library.
type Option func(*Library)

// WithFallback answers unknown identities with the table of id instead of
// failing. id must itself be present in the library.
func WithFallback(id int) Option {
	return func(l *Library) {
		l.fallback = id
		l.hasFallback = true
	}
}

// Library maps strategy identities to the agents trained against them.
type Library struct {
	agents      map[int]*agent.Agent
	fallback    int
	hasFallback bool
}

// NewLibrary builds a library from agents keyed by identity.
func NewLibrary(agents map[int]*agent.Agent, opts ...Option) (*Library, error) {
	l := &Library{agents: make(map[int]*agent.Agent, len(agents))}
	for id, a := range agents {
		if a == nil {
			return nil, fmt.Errorf("nil agent for identity %d", id)
		}
		l.agents[id] = a
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.hasFallback {
		if _, ok := l.agents[l.fallback]; !ok {
			return nil, fmt.Errorf("fallback identity: %w", &ResolutionError{ID: l.fallback, Known: l.IDs()})
		}
	}
	return l, nil
}

// Resolve returns the agent for id, the fallback agent when one is configured,
// or a *ResolutionError.
func (l *Library) Resolve(id int) (*agent.Agent, error) {
	if a, ok := l.agents[id]; ok {
		return a, nil
	}
	if l.hasFallback {
		return l.agents[l.fallback], nil
	}
	return nil, &ResolutionError{ID: id, Known: l.IDs()}
}

// IDs returns the known identities in ascending order.
func (l *Library) IDs() []int {
	ids := make([]int, 0, len(l.agents))
	for id := range l.agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of tables.
func (l *Library) Len() int { return len(l.agents) }
