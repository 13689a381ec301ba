// Package agent implements the tabular learner: a value table keyed by
// truncated move history and an epsilon-greedy policy with a curiosity bias
// toward untried actions.
package agent

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/signalnine/dilemma/game"
)

// tieTolerance is the absolute tolerance under which two action values are
// treated as equal.
const tieTolerance = 1e-5

// Config holds the learner hyperparameters. All fields are fixed after
// construction; only the current epsilon moves, and only downward.
type Config struct {
	LearningRate float64 `json:"learning_rate"`
	Discount     float64 `json:"discount_factor"`
	Epsilon      float64 `json:"initial_epsilon"`
	DecayRate    float64 `json:"epsilon_decay_rate"`
	MinEpsilon   float64 `json:"min_epsilon"`
	Memory       int     `json:"memory_window"`
}

// DefaultConfig returns the hyperparameters used when none are given.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		Discount:     0.95,
		Epsilon:      1.0,
		DecayRate:    0.99,
		MinEpsilon:   0.1,
		Memory:       1000,
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", c.LearningRate)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount_factor must be in [0, 1], got %g", c.Discount)
	}
	if c.MinEpsilon < 0 || c.Epsilon > 1 || c.MinEpsilon > c.Epsilon {
		return fmt.Errorf("epsilon bounds must satisfy 0 <= min_epsilon (%g) <= initial_epsilon (%g) <= 1",
			c.MinEpsilon, c.Epsilon)
	}
	if c.DecayRate <= 0 || c.DecayRate > 1 {
		return fmt.Errorf("epsilon_decay_rate must be in (0, 1], got %g", c.DecayRate)
	}
	if c.Memory < 0 {
		return fmt.Errorf("memory_window must be non-negative, got %d", c.Memory)
	}
	return nil
}

// Agent is a Q-learning player for the iterated dilemma.
type Agent struct {
	cfg     Config
	table   *ValueTable
	epsilon float64
	rng     *rand.Rand
}

// New creates an agent with an empty table.
func New(cfg Config, rng *rand.Rand) (*Agent, error) {
	return NewWithTable(cfg, NewValueTable(), rng)
}

// NewWithTable creates an agent around an existing (for example restored) table.
func NewWithTable(cfg Config, table *ValueTable, rng *rand.Rand) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("agent requires a random source")
	}
	if table == nil {
		table = NewValueTable()
	}
	return &Agent{
		cfg:     cfg,
		table:   table,
		epsilon: cfg.Epsilon,
		rng:     rng,
	}, nil
}

// Config returns the construction parameters.
func (a *Agent) Config() Config {
	return a.cfg
}

// Table returns the agent's value table.
func (a *Agent) Table() *ValueTable {
	return a.table
}

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// SetEpsilon overrides the exploration rate, clamped to
// [MinEpsilon, initial Epsilon].
func (a *Agent) SetEpsilon(e float64) {
	a.epsilon = math.Min(math.Max(e, a.cfg.MinEpsilon), a.cfg.Epsilon)
}

// Key encodes h with the agent's memory window.
func (a *Agent) Key(h game.History) game.StateKey {
	return game.Encode(h, a.cfg.Memory)
}

// PickAction chooses the next move given the game so far.
//
// Epsilon decays on every call. When curious, a tied state is broken at
// random and a state where exactly one value is still exactly zero plays that
// action; the zero is read as "never tried", even if it was learned.
// Otherwise the choice is epsilon-greedy with random tie-breaking.
func (a *Agent) PickAction(h game.History, curious bool) game.Action {
	key := a.Key(h)
	v := a.table.Get(key)

	a.epsilon = math.Max(a.epsilon*a.cfg.DecayRate, a.cfg.MinEpsilon)

	if curious {
		if tied(v) {
			return a.randomAction()
		}
		c, d := v[game.Cooperate], v[game.Defect]
		if c == 0 && d != 0 {
			return game.Cooperate
		}
		if d == 0 && c != 0 {
			return game.Defect
		}
	}

	return a.greedy(v)
}

func (a *Agent) greedy(v Values) game.Action {
	if tied(v) || a.rng.Float64() <= a.epsilon {
		return a.randomAction()
	}
	if v[game.Cooperate] > v[game.Defect] {
		return game.Cooperate
	}
	return game.Defect
}

func (a *Agent) randomAction() game.Action {
	return game.Action(a.rng.Intn(game.NumActions))
}

func tied(v Values) bool {
	return math.Abs(v[game.Cooperate]-v[game.Defect]) <= tieTolerance
}

// Learn applies the TD update for one round. prev and curr are the full
// histories before and after the round; both are truncated to the memory
// window here.
func (a *Agent) Learn(prev, curr game.History, action game.Action, reward float64, terminal bool) {
	a.Update(a.Key(prev), action, reward, a.Key(curr), terminal)
}

// Update moves the value of action in prev toward
// reward + discount * max(curr). Terminal transitions drop the future term.
// Only prev and curr are read or written.
func (a *Agent) Update(prev game.StateKey, action game.Action, reward float64, curr game.StateKey, terminal bool) {
	target := reward
	if !terminal {
		target += a.cfg.Discount * a.table.Get(curr).Max()
	}
	value := a.table.Get(prev)[action]
	a.table.SetComponent(prev, action, value+a.cfg.LearningRate*(target-value))
}
