package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// TrainConfig controls a single-pair training run.
type TrainConfig struct {
	Epochs int // Training games to play
	Rounds int // Rounds per game
	// ConvergenceEpochs stops training early once the value table has been
	// identical after this many consecutive games (0 = disabled).
	ConvergenceEpochs int
	// SnapshotStride records a copy of the table every N epochs for external
	// visualisation (0 = disabled).
	SnapshotStride int
}

// Validate checks that the run has work to do.
func (c TrainConfig) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("training_epochs must be positive, got %d", c.Epochs)
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds_per_game must be positive, got %d", c.Rounds)
	}
	if c.ConvergenceEpochs < 0 || c.SnapshotStride < 0 {
		return errors.New("convergence_epochs and snapshot_stride must be non-negative")
	}
	return nil
}

// TableSnapshot is a copy of a value table taken after a training epoch.
type TableSnapshot struct {
	Epoch  int
	Values map[game.StateKey]agent.Values
}

// TrainResult summarises a training run.
type TrainResult struct {
	Epochs    int     // Games actually played
	MaxReward float64 // Best learner total seen in a single game
	Converged bool
	Snapshots []TableSnapshot
}

// Trainer runs training games for one learner against one opponent.
type Trainer struct {
	Config TrainConfig
	Payoff game.PayoffMatrix
	Logger zerolog.Logger

	// OnEpochComplete, if set, is called after every training game.
	OnEpochComplete func(epoch int, res EpisodeResult)
}

// NewTrainer creates a trainer with a no-op logger.
func NewTrainer(cfg TrainConfig, payoff game.PayoffMatrix) *Trainer {
	return &Trainer{Config: cfg, Payoff: payoff, Logger: zerolog.Nop()}
}

// Train plays cfg.Epochs training games of a against opponent. Cancellation
// is only honoured between games so no update is ever half-applied.
func (tr *Trainer) Train(ctx context.Context, a *agent.Agent, opponent strategy.Strategy) (TrainResult, error) {
	if err := tr.Config.Validate(); err != nil {
		return TrainResult{}, err
	}

	log := tr.Logger.With().Str("opponent", opponent.Name()).Logger()
	monitor := NewConvergenceMonitor(tr.Config.ConvergenceEpochs)
	stride := tr.Config.SnapshotStride

	var res TrainResult
	for epoch := 0; epoch < tr.Config.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ep := PlayEpisode(a, opponent, tr.Config.Rounds, true, tr.Payoff)
		res.Epochs = epoch + 1
		if epoch == 0 || ep.LearnerReward > res.MaxReward {
			res.MaxReward = ep.LearnerReward
		}

		if tr.OnEpochComplete != nil {
			tr.OnEpochComplete(epoch, ep)
		}

		if stride > 0 && epoch%stride == 0 {
			res.Snapshots = append(res.Snapshots, TableSnapshot{Epoch: epoch, Values: a.Table().Snapshot()})
		}

		if monitor.Observe(a.Table()) {
			res.Converged = true
			if stride > 0 && epoch%stride != 0 {
				res.Snapshots = append(res.Snapshots, TableSnapshot{Epoch: epoch, Values: a.Table().Snapshot()})
			}
			log.Debug().Int("epoch", epoch).Msg("value table converged")
			break
		}
	}

	log.Info().
		Int("epochs", res.Epochs).
		Float64("max_reward", res.MaxReward).
		Bool("converged", res.Converged).
		Int("states", a.Table().Len()).
		Float64("epsilon", a.Epsilon()).
		Msg("training complete")

	return res, nil
}
