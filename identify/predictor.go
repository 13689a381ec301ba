// Package identify plays against an unknown opponent by guessing which known
// strategy it is and answering with the value table trained against that
// strategy.
package identify

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// Predictor estimates the identity of the opponent from the moves played so
// far. Confidence holds one entry per known identity.
type Predictor interface {
	Predict(h game.History) (id int, confidence []float64, err error)
}

// StubPredictor always reports the same identity.
type StubPredictor struct {
	ID         int
	Confidence []float64
}

func (p StubPredictor) Predict(game.History) (int, []float64, error) {
	return p.ID, p.Confidence, nil
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(h game.History) (int, []float64, error)

func (f PredictorFunc) Predict(h game.History) (int, []float64, error) { return f(h) }

// DefaultNoise is the probability with which a deterministic candidate is
// assumed to deviate from its own rule.
const DefaultNoise = 0.05

// FingerprintPredictor scores every strategy of a roster by how well it
// explains the observed opponent moves. Each candidate is replayed from a
// fresh instance against the recorded self moves; the confidence vector is
// the normalized likelihood under a uniform prior.
type FingerprintPredictor struct {
	Roster *strategy.Roster
	Noise  float64
}

// NewFingerprintPredictor creates a predictor over r with DefaultNoise.
func NewFingerprintPredictor(r *strategy.Roster) *FingerprintPredictor {
	return &FingerprintPredictor{Roster: r, Noise: DefaultNoise}
}

// Predict returns the most likely identity. Ties go to the lowest identity.
func (p *FingerprintPredictor) Predict(h game.History) (int, []float64, error) {
	if p.Roster == nil || p.Roster.Len() == 0 {
		return 0, nil, errors.New("fingerprint predictor has no candidates")
	}
	noise := p.Noise
	if noise <= 0 || noise >= 0.5 {
		noise = DefaultNoise
	}

	logLik := make([]float64, p.Roster.Len())
	for id := range logLik {
		s, err := p.Roster.New(id)
		if err != nil {
			return 0, nil, err
		}
		logLik[id] = replay(s, h, noise)
	}

	norm := floats.LogSumExp(logLik)
	confidence := make([]float64, len(logLik))
	for i, ll := range logLik {
		confidence[i] = math.Exp(ll - norm)
	}
	return floats.MaxIdx(confidence), confidence, nil
}

// replay returns the log-likelihood of the opponent moves in h under s.
func replay(s strategy.Strategy, h game.History, noise float64) float64 {
	var ll float64
	if r, ok := s.(*strategy.Random); ok {
		for _, m := range h {
			if m.Opponent == game.Cooperate {
				ll += math.Log(clampProb(r.P))
			} else {
				ll += math.Log(clampProb(1 - r.P))
			}
		}
		return ll
	}

	s.Reset()
	for _, m := range h {
		if s.Play() == m.Opponent {
			ll += math.Log(1 - noise)
		} else {
			ll += math.Log(noise)
		}
		s.Update(m.Self)
	}
	return ll
}

func clampProb(p float64) float64 {
	const eps = 1e-9
	return math.Min(math.Max(p, eps), 1-eps)
}
