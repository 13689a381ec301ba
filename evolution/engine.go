package evolution

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/internal/random"
	"github.com/signalnine/dilemma/simulation"
)

// ErrEmptyPopulation is returned when a tournament is started without members.
var ErrEmptyPopulation = errors.New("evolution: empty population")

// Config holds configuration for a tournament run.
type Config struct {
	Generations      int               `json:"generations"`                 // Generations to run
	Interactions     int               `json:"interactions_per_generation"` // Pairing rounds per generation
	Rounds           int               `json:"rounds_per_game"`             // Rounds per game
	ReproductionRate float64           `json:"reproduction_rate"`           // Clamped to [0, 1]
	Payoff           game.PayoffMatrix `json:"payoff_matrix"`
	RandomSeed       int64             `json:"seed"`    // 0 = pick one
	NumWorkers       int               `json:"workers"` // 0 = one per CPU, 1 = sequential
}

// DefaultConfig returns a default tournament configuration.
func DefaultConfig() *Config {
	return &Config{
		Generations:      100,
		Interactions:     50,
		Rounds:           50,
		ReproductionRate: 0.1,
		Payoff:           game.DefaultPayoff(),
		RandomSeed:       0,
		NumWorkers:       1,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Generations < 0:
		return fmt.Errorf("generations must be non-negative, got %d", c.Generations)
	case c.Interactions < 0:
		return fmt.Errorf("interactions_per_generation must be non-negative, got %d", c.Interactions)
	case c.Rounds < 0:
		return fmt.Errorf("rounds_per_game must be non-negative, got %d", c.Rounds)
	case c.NumWorkers < 0:
		return fmt.Errorf("workers must be non-negative, got %d", c.NumWorkers)
	}
	return nil
}

// Generation is an immutable snapshot of the population after a generation.
// Index 0 is the initial population before any play.
type Generation struct {
	Index       int            `json:"index"`
	Members     []Member       `json:"members"`
	Counts      map[string]int `json:"counts"`
	BestFitness float64        `json:"best_fitness"`
	AvgFitness  float64        `json:"avg_fitness"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Engine runs the evolutionary tournament.
type Engine struct {
	Config     *Config
	Population *Population
	History    []Generation
	Rng        *rand.Rand
	RunID      uuid.UUID
	Logger     zerolog.Logger

	// Callbacks for progress reporting
	OnGenerationComplete func(g Generation)
}

// NewEngine creates a tournament engine over pop. A zero seed is replaced by
// a generated one, which is written back to the config so the run can be
// replayed.
func NewEngine(config *Config, pop *Population) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	rng, seed := random.New(config.RandomSeed)
	config.RandomSeed = seed
	if pop == nil {
		pop = &Population{}
	}

	return &Engine{
		Config:     config,
		Population: pop,
		Rng:        rng,
		RunID:      uuid.New(),
		Logger:     zerolog.Nop(),
	}
}

// Run plays the configured number of generations and returns every snapshot,
// starting with the initial population. Cancellation is honoured between
// generations; a generation that has started always completes.
func (e *Engine) Run(ctx context.Context) ([]Generation, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	if e.Population.Size() == 0 {
		return nil, ErrEmptyPopulation
	}

	e.Logger.Info().
		Str("run_id", e.RunID.String()).
		Int64("seed", e.Config.RandomSeed).
		Int("population", e.Population.Size()).
		Int("generations", e.Config.Generations).
		Msg("starting tournament")

	if len(e.History) == 0 {
		e.record(e.snapshot())
	}

	for e.Population.Generation < e.Config.Generations {
		if err := ctx.Err(); err != nil {
			e.Logger.Warn().Int("generation", e.Population.Generation).Msg("tournament cancelled")
			return e.History, err
		}
		if _, err := e.Step(ctx); err != nil {
			return e.History, err
		}
	}

	e.Logger.Info().
		Str("run_id", e.RunID.String()).
		Interface("composition", e.Population.Counts()).
		Msg("tournament complete")
	return e.History, nil
}

// Step runs a single generation: fitness is reset, the configured number of
// interactions are played, the population is ranked and the weakest members
// are replaced. The resulting snapshot is recorded and returned.
func (e *Engine) Step(ctx context.Context) (Generation, error) {
	if e.Population.Size() == 0 {
		return Generation{}, ErrEmptyPopulation
	}
	// Games already scheduled in this generation must not be abandoned.
	ctx = context.WithoutCancel(ctx)

	e.Population.ResetFitness()
	for i := 0; i < e.Config.Interactions; i++ {
		if err := e.interact(ctx); err != nil {
			return Generation{}, fmt.Errorf("generation %d interaction %d: %w", e.Population.Generation+1, i, err)
		}
	}

	e.Population.SortByFitness()
	best := e.Population.GetBestIndividual().Fitness
	avg := e.Population.GetAverageFitness()

	n := ReplacementCount(e.Population.Size(), e.Config.ReproductionRate)
	Replace(e.Population.Individuals, n)
	e.Population.Generation++

	g := e.snapshot()
	g.BestFitness = best
	g.AvgFitness = avg
	e.record(g)

	e.Logger.Debug().
		Int("generation", g.Index).
		Int("replaced", n).
		Float64("best_fitness", best).
		Float64("avg_fitness", avg).
		Msg("generation complete")

	return g, nil
}

// interact shuffles the population, pairs adjacent members and credits each
// with the reward of its game. With an odd size the last member sits out.
func (e *Engine) interact(ctx context.Context) error {
	ind := e.Population.Individuals
	e.Rng.Shuffle(len(ind), func(i, j int) { ind[i], ind[j] = ind[j], ind[i] })

	pairs := make([]simulation.Pair, 0, len(ind)/2)
	for i := 0; i+1 < len(ind); i += 2 {
		pairs = append(pairs, simulation.Pair{A: ind[i].Strategy, B: ind[i+1].Strategy})
	}

	results, err := simulation.PlayPairs(ctx, pairs, e.Config.Rounds, e.Config.Payoff, e.Config.NumWorkers)
	if err != nil {
		return err
	}
	for k, r := range results {
		ind[2*k].Fitness += r.LearnerReward
		ind[2*k+1].Fitness += r.OpponentReward
	}
	return nil
}

func (e *Engine) snapshot() Generation {
	members := e.Population.Members()
	return Generation{
		Index:     e.Population.Generation,
		Members:   members,
		Counts:    countMembers(members),
		Timestamp: time.Now(),
	}
}

func (e *Engine) record(g Generation) {
	e.History = append(e.History, g)
	if e.OnGenerationComplete != nil {
		e.OnGenerationComplete(g)
	}
}

// Composition returns, for every strategy name seen in the history, its
// population count in each generation.
func Composition(history []Generation) map[string][]int {
	out := make(map[string][]int)
	for _, g := range history {
		for name := range g.Counts {
			if _, ok := out[name]; !ok {
				out[name] = make([]int, len(history))
			}
		}
	}
	for i, g := range history {
		for name, n := range g.Counts {
			out[name][i] = n
		}
	}
	return out
}
