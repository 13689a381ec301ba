package simulation

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// EvalConfig controls a post-training evaluation.
type EvalConfig struct {
	Epochs  int     // Games to play
	Rounds  int     // Rounds per game
	Epsilon float64 // Exploration rate during evaluation
	// Samples is how many game histories to keep in the report.
	Samples int
}

// EvalReport summarises non-training play of a learner against one opponent.
type EvalReport struct {
	Opponent       string
	Wins           int
	Ties           int
	Losses         int
	AvgReward      float64
	AvgOpponent    float64
	MutualCoopMark float64 // Reward for cooperating every round
	TableSize      int
	MaxTableSize   int
	SampleGames    []EpisodeResult
}

// Evaluate plays cfg.Epochs non-training games and tallies the outcomes.
// The agent's epsilon is set to cfg.Epsilon first.
func Evaluate(ctx context.Context, a *agent.Agent, opponent strategy.Strategy, cfg EvalConfig, payoff game.PayoffMatrix) (EvalReport, error) {
	if cfg.Epochs <= 0 || cfg.Rounds <= 0 {
		return EvalReport{}, fmt.Errorf("evaluation needs positive epochs and rounds, got %d and %d", cfg.Epochs, cfg.Rounds)
	}

	a.SetEpsilon(cfg.Epsilon)

	report := EvalReport{Opponent: opponent.Name()}
	selfTotals := make([]float64, 0, cfg.Epochs)
	oppTotals := make([]float64, 0, cfg.Epochs)

	for i := 0; i < cfg.Epochs; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ep := PlayEpisode(a, opponent, cfg.Rounds, false, payoff)
		switch {
		case ep.LearnerReward > ep.OpponentReward:
			report.Wins++
		case ep.LearnerReward == ep.OpponentReward:
			report.Ties++
		default:
			report.Losses++
		}
		selfTotals = append(selfTotals, ep.LearnerReward)
		oppTotals = append(oppTotals, ep.OpponentReward)
		if len(report.SampleGames) < cfg.Samples {
			report.SampleGames = append(report.SampleGames, ep)
		}
	}

	report.AvgReward = floats.Sum(selfTotals) / float64(len(selfTotals))
	report.AvgOpponent = floats.Sum(oppTotals) / float64(len(oppTotals))
	report.MutualCoopMark = float64(cfg.Rounds) * payoff[game.BothCooperate][0]
	report.TableSize = a.Table().Len()
	report.MaxTableSize = game.MaxStates(cfg.Rounds, a.Config().Memory)
	return report, nil
}
