// Package strategy defines the opponent contract and a set of classic
// rule-based players for the iterated dilemma.
package strategy

import (
	"math/rand"

	"github.com/signalnine/dilemma/game"
)

// Strategy is an opponent whose internal state is opaque to the engines.
type Strategy interface {
	// Play returns the next action.
	Play() game.Action
	// Update tells the strategy what its opponent just played.
	Update(opponentLast game.Action)
	// Reset clears per-game state.
	Reset()
	// ID is the dense identity index of the strategy kind.
	ID() int
	// Name is the human readable strategy name.
	Name() string
}

// Cloner is implemented by strategies that can produce an independent copy.
// Tournaments clone winners into the slots they take over.
type Cloner interface {
	Strategy
	Clone() Strategy
}

// Clone returns an independent copy of s when it supports cloning, and s
// itself otherwise.
func Clone(s Strategy) Strategy {
	if c, ok := s.(Cloner); ok {
		return c.Clone()
	}
	return s
}

type identity struct {
	id   int
	name string
}

func (i identity) ID() int { return i.id }
func (i identity) Name() string { return i.name }

// AlwaysCooperate never defects.
type AlwaysCooperate struct{ identity }

func (s *AlwaysCooperate) Play() game.Action { return game.Cooperate }
func (s *AlwaysCooperate) Update(game.Action) {}
func (s *AlwaysCooperate) Reset() {}
func (s *AlwaysCooperate) Clone() Strategy { c := *s; return &c }

// AlwaysDefect never cooperates.
type AlwaysDefect struct{ identity }

func (s *AlwaysDefect) Play() game.Action { return game.Defect }
func (s *AlwaysDefect) Update(game.Action) {}
func (s *AlwaysDefect) Reset() {}
func (s *AlwaysDefect) Clone() Strategy { c := *s; return &c }

// TitForTat opens with first and then copies the opponent's last move.
type TitForTat struct {
	identity
	first game.Action
	next  game.Action
}

func (s *TitForTat) Play() game.Action { return s.next }
func (s *TitForTat) Update(opponentLast game.Action) { s.next = opponentLast }
func (s *TitForTat) Reset() { s.next = s.first }
func (s *TitForTat) Clone() Strategy { c := *s; return &c }

// TitForTwoTats defects only after two consecutive opponent defections.
type TitForTwoTats struct {
	identity
	streak int
}

func (s *TitForTwoTats) Play() game.Action {
	if s.streak >= 2 {
		return game.Defect
	}
	return game.Cooperate
}

func (s *TitForTwoTats) Update(opponentLast game.Action) {
	if opponentLast == game.Defect {
		s.streak++
		return
	}
	s.streak = 0
}

func (s *TitForTwoTats) Reset() { s.streak = 0 }
func (s *TitForTwoTats) Clone() Strategy { c := *s; return &c }

// Grudger cooperates until the opponent defects once, then defects forever.
type Grudger struct {
	identity
	betrayed bool
}

func (s *Grudger) Play() game.Action {
	if s.betrayed {
		return game.Defect
	}
	return game.Cooperate
}

func (s *Grudger) Update(opponentLast game.Action) {
	if opponentLast == game.Defect {
		s.betrayed = true
	}
}

func (s *Grudger) Reset() { s.betrayed = false }
func (s *Grudger) Clone() Strategy { c := *s; return &c }

// Pavlov (win-stay, lose-shift) repeats its move after the opponent
// cooperated and switches after the opponent defected.
type Pavlov struct {
	identity
	last game.Action
}

func (s *Pavlov) Play() game.Action { return s.last }

func (s *Pavlov) Update(opponentLast game.Action) {
	if opponentLast == game.Defect {
		s.last = s.last.Opposite()
	}
}

func (s *Pavlov) Reset() { s.last = game.Cooperate }
func (s *Pavlov) Clone() Strategy { c := *s; return &c }

// Random cooperates with probability P.
type Random struct {
	identity
	P   float64
	rng *rand.Rand
}

func (s *Random) Play() game.Action {
	if s.rng.Float64() < s.P {
		return game.Cooperate
	}
	return game.Defect
}

func (s *Random) Update(game.Action) {}
func (s *Random) Reset() {}

// Clone reseeds the copy from s's own source.
func (s *Random) Clone() Strategy {
	return &Random{identity: s.identity, P: s.P, rng: rand.New(rand.NewSource(s.rng.Int63()))}
}
