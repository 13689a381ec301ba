package identify

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// IdentifiedResult summarizes one identify-then-respond game.
type IdentifiedResult struct {
	Reward         float64
	OpponentReward float64
	History        game.History
	Predictions    []int // identity used in each round
	Predicted      int   // identity used in the last round
	Correct        bool  // Predicted matches the opponent identity
}

// PlayIdentified plays rounds against opponent. Before each round the
// predictor names an identity from the history so far and the move is taken
// greedily from that identity's table. A prediction that cannot be resolved
// ends the game with an error.
func PlayIdentified(p Predictor, lib *Library, opponent strategy.Strategy, rounds int, payoff game.PayoffMatrix) (IdentifiedResult, error) {
	res := IdentifiedResult{
		History:     make(game.History, 0, max(rounds, 0)),
		Predictions: make([]int, 0, max(rounds, 0)),
		Predicted:   -1,
	}
	opponent.Reset()

	for round := 0; round < rounds; round++ {
		id, _, err := p.Predict(res.History)
		if err != nil {
			return res, fmt.Errorf("round %d: predict: %w", round, err)
		}
		a, err := lib.Resolve(id)
		if err != nil {
			return res, fmt.Errorf("round %d: %w", round, err)
		}

		self := a.PickAction(res.History, false)
		opp := opponent.Play()
		opponent.Update(self)

		res.History = res.History.Append(game.Move{Self: self, Opponent: opp})
		r1, r2 := payoff.Reward(self, opp)
		res.Reward += r1
		res.OpponentReward += r2
		res.Predictions = append(res.Predictions, id)
		res.Predicted = id
	}
	res.Correct = res.Predicted == opponent.ID()
	return res, nil
}

// AccuracyConfig controls EvaluateAccuracy.
type AccuracyConfig struct {
	Games  int
	Rounds int
}

// AccuracyReport aggregates identify-then-respond games against random
// opponents.
type AccuracyReport struct {
	Games       int     `json:"games"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
	TotalReward float64 `json:"total_reward"`
	AvgPerGame  float64 `json:"avg_reward_per_game"`
	AvgPerRound float64 `json:"avg_reward_per_round"`
}

// Evaluator runs identify-then-respond games against opponents drawn from a
// roster.
type Evaluator struct {
	Predictor Predictor
	Library   *Library
	Roster    *strategy.Roster
	Payoff    game.PayoffMatrix
	Logger    zerolog.Logger
}

// NewEvaluator creates an evaluator with a Nop logger.
func NewEvaluator(p Predictor, lib *Library, r *strategy.Roster, payoff game.PayoffMatrix) *Evaluator {
	return &Evaluator{Predictor: p, Library: lib, Roster: r, Payoff: payoff, Logger: zerolog.Nop()}
}

// EvaluateAccuracy plays cfg.Games games of cfg.Rounds rounds, each against a
// uniformly drawn opponent, and reports how often the final prediction was
// right along with the rewards earned.
func (e *Evaluator) EvaluateAccuracy(ctx context.Context, cfg AccuracyConfig) (AccuracyReport, error) {
	if cfg.Games <= 0 {
		return AccuracyReport{}, fmt.Errorf("games must be positive, got %d", cfg.Games)
	}
	report := AccuracyReport{Games: cfg.Games}
	for i := 0; i < cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		opp := e.Roster.Random()
		res, err := PlayIdentified(e.Predictor, e.Library, opp, cfg.Rounds, e.Payoff)
		if err != nil {
			return report, fmt.Errorf("game %d against %s: %w", i, opp.Name(), err)
		}
		if res.Correct {
			report.Correct++
		}
		report.TotalReward += res.Reward
	}

	report.Accuracy = float64(report.Correct) / float64(cfg.Games)
	report.AvgPerGame = report.TotalReward / float64(cfg.Games)
	if cfg.Rounds > 0 {
		report.AvgPerRound = report.TotalReward / float64(cfg.Games*cfg.Rounds)
	}

	e.Logger.Info().
		Int("games", report.Games).
		Float64("accuracy", report.Accuracy).
		Float64("total_reward", report.TotalReward).
		Float64("avg_reward_per_game", report.AvgPerGame).
		Float64("avg_reward_per_round", report.AvgPerRound).
		Msg("identification evaluated")
	return report, nil
}

// AccuracyByLength returns the prediction accuracy for game lengths
// 1..maxLength, playing games games at each length.
func (e *Evaluator) AccuracyByLength(ctx context.Context, maxLength, games int) ([]float64, error) {
	out := make([]float64, 0, maxLength)
	for length := 1; length <= maxLength; length++ {
		rep, err := e.EvaluateAccuracy(ctx, AccuracyConfig{Games: games, Rounds: length})
		if err != nil {
			return out, err
		}
		out = append(out, rep.Accuracy)
	}
	return out, nil
}

// ConfidenceTrace plays uniformly random moves against opponent and records
// the predictor's confidence vector before each round.
func ConfidenceTrace(p Predictor, opponent strategy.Strategy, rounds int, rng *rand.Rand) ([][]float64, error) {
	opponent.Reset()
	var h game.History
	trace := make([][]float64, 0, rounds)
	for round := 0; round < rounds; round++ {
		_, conf, err := p.Predict(h)
		if err != nil {
			return trace, err
		}
		trace = append(trace, conf)

		self := game.Action(rng.Intn(game.NumActions))
		opp := opponent.Play()
		opponent.Update(self)
		h = h.Append(game.Move{Self: self, Opponent: opp})
	}
	return trace, nil
}
