package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/signalnine/dilemma/game"
)

// ErrUnknownStrategy is returned for names without a registered factory.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Factory builds a fresh strategy with the given identity.
type Factory func(id int, rng *rand.Rand) Strategy

// Built-in strategy names.
const (
	NameAlwaysCooperate     = "always_cooperate"
	NameAlwaysDefect        = "always_defect"
	NameTitForTat           = "tit_for_tat"
	NameSuspiciousTitForTat = "suspicious_tit_for_tat"
	NameTitForTwoTats       = "tit_for_two_tats"
	NameGrudger             = "grudger"
	NamePavlov              = "pavlov"
	NameRandom              = "random"
)

var factories = map[string]Factory{
	NameAlwaysCooperate: func(id int, _ *rand.Rand) Strategy {
		return &AlwaysCooperate{identity{id, NameAlwaysCooperate}}
	},
	NameAlwaysDefect: func(id int, _ *rand.Rand) Strategy {
		return &AlwaysDefect{identity{id, NameAlwaysDefect}}
	},
	NameTitForTat: func(id int, _ *rand.Rand) Strategy {
		return &TitForTat{identity: identity{id, NameTitForTat}, first: game.Cooperate, next: game.Cooperate}
	},
	NameSuspiciousTitForTat: func(id int, _ *rand.Rand) Strategy {
		return &TitForTat{identity: identity{id, NameSuspiciousTitForTat}, first: game.Defect, next: game.Defect}
	},
	NameTitForTwoTats: func(id int, _ *rand.Rand) Strategy {
		return &TitForTwoTats{identity: identity{id, NameTitForTwoTats}}
	},
	NameGrudger: func(id int, _ *rand.Rand) Strategy {
		return &Grudger{identity: identity{id, NameGrudger}}
	},
	NamePavlov: func(id int, _ *rand.Rand) Strategy {
		return &Pavlov{identity: identity{id, NamePavlov}}
	},
	NameRandom: func(id int, rng *rand.Rand) Strategy {
		return &Random{identity: identity{id, NameRandom}, P: 0.5, rng: rand.New(rand.NewSource(rng.Int63()))}
	},
}

// Builtins returns the registered strategy names in sorted order.
func Builtins() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Roster assigns dense identities 0..n-1 to a list of strategy kinds. The
// identity of a kind is its position in the list.
type Roster struct {
	names []string
	index map[string]int
	rng   *rand.Rand
}

// NewRoster validates names and binds them to identities in order. rng seeds
// strategies that need their own randomness.
func NewRoster(names []string, rng *rand.Rand) (*Roster, error) {
	if len(names) == 0 {
		return nil, errors.New("roster requires at least one strategy")
	}
	if rng == nil {
		return nil, errors.New("roster requires a random source")
	}
	r := &Roster{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
		rng:   rng,
	}
	for i, name := range names {
		if _, ok := factories[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("strategy %q listed twice", name)
		}
		r.names[i] = name
		r.index[name] = i
	}
	return r, nil
}

// Len returns the number of identities.
func (r *Roster) Len() int { return len(r.names) }

// Names returns the strategy names indexed by identity.
func (r *Roster) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns the identity of name.
func (r *Roster) Lookup(name string) (int, bool) {
	id, ok := r.index[name]
	return id, ok
}

// New builds a fresh instance of identity id.
func (r *Roster) New(id int) (Strategy, error) {
	if id < 0 || id >= len(r.names) {
		return nil, fmt.Errorf("strategy identity %d out of range [0, %d)", id, len(r.names))
	}
	s := factories[r.names[id]](id, r.rng)
	s.Reset()
	return s, nil
}

// NewByName builds a fresh instance of the named strategy.
func (r *Roster) NewByName(name string) (Strategy, error) {
	id, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return r.New(id)
}

// All returns one fresh instance of every identity.
func (r *Roster) All() []Strategy {
	out := make([]Strategy, len(r.names))
	for id := range r.names {
		out[id], _ = r.New(id)
	}
	return out
}

// Random returns a fresh instance of a uniformly chosen identity.
func (r *Roster) Random() Strategy {
	s, _ := r.New(r.rng.Intn(len(r.names)))
	return s
}
