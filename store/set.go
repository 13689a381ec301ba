// Package store persists learned value tables: a FlatBuffers file format with
// one table per opponent identity, and a SQLite run log.
package store

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/signalnine/dilemma/agent"
)

// Table is the value table learned against one opponent identity.
type Table struct {
	Identity int
	Name     string
	Values   *agent.ValueTable
}

// Set is a collection of tables with unique identities.
type Set struct {
	tables map[int]Table
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{tables: make(map[int]Table)}
}

// Add inserts a table. Identities must be unique.
func (s *Set) Add(id int, name string, values *agent.ValueTable) error {
	if values == nil {
		return fmt.Errorf("nil table for identity %d", id)
	}
	if _, dup := s.tables[id]; dup {
		return fmt.Errorf("identity %d already stored", id)
	}
	s.tables[id] = Table{Identity: id, Name: name, Values: values}
	return nil
}

// Get returns the table stored for id.
func (s *Set) Get(id int) (Table, bool) {
	t, ok := s.tables[id]
	return t, ok
}

// Len returns the number of tables.
func (s *Set) Len() int { return len(s.tables) }

// Tables returns the tables ordered by identity.
func (s *Set) Tables() []Table {
	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Agents wraps every table in an agent with cfg. Each agent draws its own
// seed from rng.
func (s *Set) Agents(cfg agent.Config, rng *rand.Rand) (map[int]*agent.Agent, error) {
	out := make(map[int]*agent.Agent, len(s.tables))
	for _, t := range s.Tables() {
		a, err := agent.NewWithTable(cfg, t.Values, rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return nil, fmt.Errorf("identity %d: %w", t.Identity, err)
		}
		out[t.Identity] = a
	}
	return out, nil
}
