package agent

import (
	"math/rand"

	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// Player exposes a trained agent through the strategy contract so it can sit
// in a tournament population. It plays greedily and does not learn.
type Player struct {
	agent   *Agent
	id      int
	name    string
	history game.History
	pending game.Action
}

var _ strategy.Cloner = (*Player)(nil)

// NewPlayer wraps a with the given identity.
func NewPlayer(a *Agent, id int, name string) *Player {
	return &Player{agent: a, id: id, name: name}
}

// Agent returns the wrapped learner.
func (p *Player) Agent() *Agent { return p.agent }

func (p *Player) Play() game.Action {
	p.pending = p.agent.PickAction(p.history, false)
	return p.pending
}

func (p *Player) Update(opponentLast game.Action) {
	p.history = p.history.Append(game.Move{Self: p.pending, Opponent: opponentLast})
}

func (p *Player) Reset() {
	p.history = nil
	p.pending = game.Cooperate
}

func (p *Player) ID() int      { return p.id }
func (p *Player) Name() string { return p.name }

// Clone copies the table and reseeds the random source so the copy shares no
// mutable state with p.
func (p *Player) Clone() strategy.Strategy {
	a := &Agent{
		cfg:     p.agent.cfg,
		table:   p.agent.table.Clone(),
		epsilon: p.agent.epsilon,
		rng:     rand.New(rand.NewSource(p.agent.rng.Int63())),
	}
	return &Player{agent: a, id: p.id, name: p.name}
}
