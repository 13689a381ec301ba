package evolution

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/signalnine/dilemma/strategy"
)

// CheckpointData represents the serializable state of a tournament run.
type CheckpointData struct {
	// Configuration
	Config *Config `json:"config"`

	// Current state
	Generation int          `json:"generation"`
	Population []Member     `json:"population"`
	History    []Generation `json:"history"`

	// Metadata
	RunID     uuid.UUID `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	RNGSeed   int64     `json:"rng_seed"`
	Version   string    `json:"version"`
}

// CheckpointVersion is the current checkpoint format version.
const CheckpointVersion = "1.0"

// Builder recreates a strategy from its recorded identity.
type Builder func(m Member) (strategy.Strategy, error)

// RosterBuilder builds members by name from a roster.
func RosterBuilder(r *strategy.Roster) Builder {
	return func(m Member) (strategy.Strategy, error) {
		return r.NewByName(m.Name)
	}
}

// SaveCheckpoint saves the current tournament state to a file.
func (e *Engine) SaveCheckpoint(path string) error {
	if e.Population == nil {
		return fmt.Errorf("no population to save")
	}

	checkpoint := CheckpointData{
		Config:     e.Config,
		Generation: e.Population.Generation,
		Population: e.Population.Members(),
		History:    e.History,
		RunID:      e.RunID,
		Timestamp:  time.Now(),
		RNGSeed:    e.Config.RandomSeed,
		Version:    CheckpointVersion,
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tempPath := path + ".tmp"
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint loads tournament state from a checkpoint file.
func LoadCheckpoint(path string) (*CheckpointData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var checkpoint CheckpointData
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	if checkpoint.Version != CheckpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %q", checkpoint.Version)
	}

	return &checkpoint, nil
}

// RestoreFromCheckpoint restores engine state from checkpoint data. Strategies
// are rebuilt fresh from their identities; learned state is not carried over.
// The generator is reseeded from the run seed and generation, so a resumed run
// is reproducible but does not replay the original random stream.
func (e *Engine) RestoreFromCheckpoint(checkpoint *CheckpointData, build Builder) error {
	if checkpoint == nil {
		return fmt.Errorf("nil checkpoint")
	}

	if checkpoint.Config != nil {
		e.Config.Generations = checkpoint.Config.Generations
		e.Config.Interactions = checkpoint.Config.Interactions
		e.Config.Rounds = checkpoint.Config.Rounds
		e.Config.ReproductionRate = checkpoint.Config.ReproductionRate
		e.Config.Payoff = checkpoint.Config.Payoff
		e.Config.RandomSeed = checkpoint.RNGSeed
	}

	strategies := make([]strategy.Strategy, len(checkpoint.Population))
	for i, m := range checkpoint.Population {
		s, err := build(m)
		if err != nil {
			return fmt.Errorf("restore member %d (%s): %w", i, m.Name, err)
		}
		strategies[i] = s
	}
	e.Population = NewPopulation(strategies)
	e.Population.Generation = checkpoint.Generation

	e.History = append([]Generation(nil), checkpoint.History...)
	e.RunID = checkpoint.RunID
	e.Rng = rand.New(rand.NewSource(checkpoint.RNGSeed + int64(checkpoint.Generation)))

	return nil
}

// ResumeFromCheckpoint creates a new engine and restores state from a checkpoint.
func ResumeFromCheckpoint(path string, build Builder) (*Engine, error) {
	checkpoint, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}

	// Create engine with checkpoint config
	engine := NewEngine(checkpoint.Config, nil)

	// Restore state
	if err := engine.RestoreFromCheckpoint(checkpoint, build); err != nil {
		return nil, err
	}

	return engine, nil
}

// AutoCheckpointer provides automatic checkpoint saving.
type AutoCheckpointer struct {
	Engine    *Engine
	Path      string
	Interval  int // Save every N generations
	LastSaved int // Last generation saved
}

// NewAutoCheckpointer creates an auto-checkpointer.
func NewAutoCheckpointer(engine *Engine, path string, interval int) *AutoCheckpointer {
	return &AutoCheckpointer{
		Engine:    engine,
		Path:      path,
		Interval:  interval,
		LastSaved: -1,
	}
}

// ShouldSave returns true if it's time to save a checkpoint.
func (ac *AutoCheckpointer) ShouldSave(generation int) bool {
	if ac.Interval <= 0 {
		return false
	}
	// Generation 0 is the unplayed initial population.
	if generation == 0 {
		return false
	}
	return generation > ac.LastSaved && generation%ac.Interval == 0
}

// Save saves a checkpoint if needed.
func (ac *AutoCheckpointer) Save(generation int) error {
	if !ac.ShouldSave(generation) {
		return nil
	}

	if err := ac.Engine.SaveCheckpoint(ac.Path); err != nil {
		return err
	}

	ac.LastSaved = generation
	return nil
}

// SaveFinal saves a final checkpoint regardless of interval.
func (ac *AutoCheckpointer) SaveFinal() error {
	return ac.Engine.SaveCheckpoint(ac.Path)
}
