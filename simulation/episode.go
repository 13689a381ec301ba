// Package simulation plays repeated games between a learner and an opponent,
// trains learners over many games and evaluates them afterwards.
package simulation

import (
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// Learner picks actions from the game history and optionally learns from
// each round. *agent.Agent implements it.
type Learner interface {
	PickAction(h game.History, curious bool) game.Action
	Learn(prev, curr game.History, action game.Action, reward float64, terminal bool)
}

// EpisodeResult holds the outcome of one repeated game.
type EpisodeResult struct {
	LearnerReward  float64
	OpponentReward float64
	// History is the full, untruncated record from the learner's seat.
	History game.History
}

// PlayEpisode plays rounds of the dilemma between learner and opponent.
//
// The opponent is reset first. Each round the learner picks from the history
// so far (curious while training), the opponent plays and is told the
// learner's move, and both payoffs are added up. When training, the learner
// learns from the round; the final round is terminal.
func PlayEpisode(learner Learner, opponent strategy.Strategy, rounds int, training bool, payoff game.PayoffMatrix) EpisodeResult {
	opponent.Reset()

	var res EpisodeResult
	history := make(game.History, 0, max(rounds, 0))

	for round := 1; round <= rounds; round++ {
		prev := history

		self := learner.PickAction(prev, training)
		opp := opponent.Play()
		opponent.Update(self)

		history = history.Append(game.Move{Self: self, Opponent: opp})

		r1, r2 := game.GetReward(self, opp, payoff)
		res.LearnerReward += r1
		res.OpponentReward += r2

		if training {
			learner.Learn(prev, history, self, r1, round == rounds)
		}
	}

	res.History = history
	return res
}

// strategyLearner seats an opaque strategy in the learner chair.
type strategyLearner struct {
	s strategy.Strategy
}

// AsLearner adapts a strategy so two strategies can meet through
// PlayEpisode. It resets at the start of each game and learns the
// opponent's previous move from the history; it never trains.
func AsLearner(s strategy.Strategy) Learner {
	return strategyLearner{s: s}
}

func (l strategyLearner) PickAction(h game.History, _ bool) game.Action {
	if len(h) == 0 {
		l.s.Reset()
	} else {
		l.s.Update(h[len(h)-1].Opponent)
	}
	return l.s.Play()
}

func (strategyLearner) Learn(game.History, game.History, game.Action, float64, bool) {}
