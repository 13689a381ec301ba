// Package config loads run settings from a config file, DILEMMA_* environment
// variables and command-line flags, and converts them into the settings of
// each engine.
package config

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/evolution"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/simulation"
	"github.com/signalnine/dilemma/strategy"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "DILEMMA"

// Error reports an invalid setting.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds every recognized setting.
type Config struct {
	// Learner
	LearningRate     float64 `mapstructure:"learning_rate"`
	DiscountFactor   float64 `mapstructure:"discount_factor"`
	InitialEpsilon   float64 `mapstructure:"initial_epsilon"`
	EpsilonDecayRate float64 `mapstructure:"epsilon_decay_rate"`
	MinEpsilon       float64 `mapstructure:"min_epsilon"`
	MemoryWindow     int     `mapstructure:"memory_window"`

	// Games
	RoundsPerGame int         `mapstructure:"rounds_per_game"`
	PayoffMatrix  [][]float64 `mapstructure:"payoff_matrix"`

	// Training
	TrainingEpochs    int `mapstructure:"training_epochs"`
	ConvergenceEpochs int `mapstructure:"convergence_epochs"`
	SnapshotStride    int `mapstructure:"snapshot_stride"`

	// Evaluation
	TestEpochs  int     `mapstructure:"test_epochs"`
	TestEpsilon float64 `mapstructure:"test_epsilon"`
	TestGames   int     `mapstructure:"test_games"`

	// Tournament
	InteractionsPerGeneration int            `mapstructure:"interactions_per_generation"`
	Generations               int            `mapstructure:"generations"`
	ReproductionRate          float64        `mapstructure:"reproduction_rate"` // clamped to [0, 1]
	Strategies                []string       `mapstructure:"strategies"`
	Population                map[string]int `mapstructure:"population"`
	CheckpointInterval        int            `mapstructure:"checkpoint_interval"`

	Seed    int64 `mapstructure:"seed"`    // 0 = pick one
	Workers int   `mapstructure:"workers"` // 0 = one per CPU
}

// DefaultPopulationSize is the number of copies of each strategy used when no
// population is configured.
const DefaultPopulationSize = 5

// Default returns a config with sensible defaults.
func Default() *Config {
	ac := agent.DefaultConfig()
	tc := evolution.DefaultConfig()
	return &Config{
		LearningRate:              ac.LearningRate,
		DiscountFactor:            ac.Discount,
		InitialEpsilon:            ac.Epsilon,
		EpsilonDecayRate:          ac.DecayRate,
		MinEpsilon:                ac.MinEpsilon,
		MemoryWindow:              ac.Memory,
		RoundsPerGame:             tc.Rounds,
		PayoffMatrix:              tc.Payoff.Rows(),
		TrainingEpochs:            5000,
		ConvergenceEpochs:         0,
		SnapshotStride:            0,
		TestEpochs:                100,
		TestEpsilon:               0.1,
		TestGames:                 100,
		InteractionsPerGeneration: tc.Interactions,
		Generations:               tc.Generations,
		ReproductionRate:          tc.ReproductionRate,
		Strategies:                strategy.Builtins(),
		CheckpointInterval:        10,
		Seed:                      0,
		Workers:                   0,
	}
}

// SetDefaults registers every key with v so environment variables and flags
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("learning_rate", d.LearningRate)
	v.SetDefault("discount_factor", d.DiscountFactor)
	v.SetDefault("initial_epsilon", d.InitialEpsilon)
	v.SetDefault("epsilon_decay_rate", d.EpsilonDecayRate)
	v.SetDefault("min_epsilon", d.MinEpsilon)
	v.SetDefault("memory_window", d.MemoryWindow)
	v.SetDefault("rounds_per_game", d.RoundsPerGame)
	v.SetDefault("payoff_matrix", d.PayoffMatrix)
	v.SetDefault("training_epochs", d.TrainingEpochs)
	v.SetDefault("convergence_epochs", d.ConvergenceEpochs)
	v.SetDefault("snapshot_stride", d.SnapshotStride)
	v.SetDefault("test_epochs", d.TestEpochs)
	v.SetDefault("test_epsilon", d.TestEpsilon)
	v.SetDefault("test_games", d.TestGames)
	v.SetDefault("interactions_per_generation", d.InteractionsPerGeneration)
	v.SetDefault("generations", d.Generations)
	v.SetDefault("reproduction_rate", d.ReproductionRate)
	v.SetDefault("strategies", d.Strategies)
	v.SetDefault("checkpoint_interval", d.CheckpointInterval)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("workers", d.Workers)
}

// Load reads path (any format viper understands; empty for none) layered
// over defaults and DILEMMA_* environment variables, then validates.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, &Error{Field: "config", Err: err}
	}
	if len(c.Population) == 0 {
		c.Population = make(map[string]int, len(c.Strategies))
		for _, name := range c.Strategies {
			c.Population[name] = DefaultPopulationSize
		}
	}
	c.ReproductionRate = evolution.ClampRate(c.ReproductionRate)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every setting and returns the first problem as an *Error.
func (c *Config) Validate() error {
	if _, err := c.Payoff(); err != nil {
		return &Error{Field: "payoff_matrix", Err: err}
	}
	if err := c.AgentConfig().Validate(); err != nil {
		return &Error{Field: "agent", Err: err}
	}

	counts := []struct {
		field string
		value int
	}{
		{"rounds_per_game", c.RoundsPerGame},
		{"training_epochs", c.TrainingEpochs},
		{"convergence_epochs", c.ConvergenceEpochs},
		{"snapshot_stride", c.SnapshotStride},
		{"test_epochs", c.TestEpochs},
		{"test_games", c.TestGames},
		{"interactions_per_generation", c.InteractionsPerGeneration},
		{"generations", c.Generations},
		{"checkpoint_interval", c.CheckpointInterval},
		{"workers", c.Workers},
	}
	for _, f := range counts {
		if f.value < 0 {
			return &Error{Field: f.field, Reason: fmt.Sprintf("must be non-negative, got %d", f.value)}
		}
	}
	if c.TestEpsilon < 0 || c.TestEpsilon > 1 {
		return &Error{Field: "test_epsilon", Reason: fmt.Sprintf("must be in [0, 1], got %g", c.TestEpsilon)}
	}

	if _, err := c.Roster(rand.New(rand.NewSource(1))); err != nil {
		return &Error{Field: "strategies", Err: err}
	}

	total := 0
	for name, n := range c.Population {
		if !slices.Contains(c.Strategies, name) {
			return &Error{Field: "population", Reason: fmt.Sprintf("strategy %q is not listed in strategies", name)}
		}
		if n < 0 {
			return &Error{Field: "population", Reason: fmt.Sprintf("negative count %d for %q", n, name)}
		}
		total += n
	}
	if total == 0 {
		return &Error{Field: "population", Err: evolution.ErrEmptyPopulation}
	}
	return nil
}

// Payoff parses the configured payoff matrix.
func (c *Config) Payoff() (game.PayoffMatrix, error) {
	return game.NewPayoffMatrix(c.PayoffMatrix)
}

// AgentConfig returns the learner hyperparameters.
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		LearningRate: c.LearningRate,
		Discount:     c.DiscountFactor,
		Epsilon:      c.InitialEpsilon,
		DecayRate:    c.EpsilonDecayRate,
		MinEpsilon:   c.MinEpsilon,
		Memory:       c.MemoryWindow,
	}
}

// TrainConfig returns the single-pair training settings.
func (c *Config) TrainConfig() simulation.TrainConfig {
	return simulation.TrainConfig{
		Epochs:            c.TrainingEpochs,
		Rounds:            c.RoundsPerGame,
		ConvergenceEpochs: c.ConvergenceEpochs,
		SnapshotStride:    c.SnapshotStride,
	}
}

// EvalConfig returns the post-training evaluation settings.
func (c *Config) EvalConfig() simulation.EvalConfig {
	return simulation.EvalConfig{
		Epochs:  c.TestEpochs,
		Rounds:  c.RoundsPerGame,
		Epsilon: c.TestEpsilon,
		Samples: 1,
	}
}

// TournamentConfig returns the tournament settings.
func (c *Config) TournamentConfig() (*evolution.Config, error) {
	payoff, err := c.Payoff()
	if err != nil {
		return nil, &Error{Field: "payoff_matrix", Err: err}
	}
	return &evolution.Config{
		Generations:      c.Generations,
		Interactions:     c.InteractionsPerGeneration,
		Rounds:           c.RoundsPerGame,
		ReproductionRate: evolution.ClampRate(c.ReproductionRate),
		Payoff:           payoff,
		RandomSeed:       c.Seed,
		NumWorkers:       c.Workers,
	}, nil
}

// Roster binds the configured strategies to identities in list order.
func (c *Config) Roster(rng *rand.Rand) (*strategy.Roster, error) {
	return strategy.NewRoster(c.Strategies, rng)
}

// PopulationStrategies instantiates the configured population from r, grouped
// by identity.
func (c *Config) PopulationStrategies(r *strategy.Roster) ([]strategy.Strategy, error) {
	names := make([]string, 0, len(c.Population))
	for name := range c.Population {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := r.Lookup(names[i])
		b, _ := r.Lookup(names[j])
		return a < b
	})

	var out []strategy.Strategy
	for _, name := range names {
		for i := 0; i < c.Population[name]; i++ {
			s, err := r.NewByName(name)
			if err != nil {
				return nil, &Error{Field: "population", Err: err}
			}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, &Error{Field: "population", Err: evolution.ErrEmptyPopulation}
	}
	return out, nil
}

// IsConfigError reports whether err is, or wraps, an *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
