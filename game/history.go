package game

import (
	"fmt"
	"strings"
)

// Move is one round of play seen from the learner's seat.
type Move struct {
	Self     Action
	Opponent Action
}

// History is the ordered record of a game. It only grows within a game.
type History []Move

// Append returns a new history with m added; h itself is never modified so
// earlier snapshots stay valid.
func (h History) Append(m Move) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, m)
}

// Tail returns the last window moves, or all of h when it is shorter.
// A non-positive window yields an empty history.
func (h History) Tail(window int) History {
	if window <= 0 {
		return h[:0]
	}
	if len(h) <= window {
		return h
	}
	return h[len(h)-window:]
}

// Swap returns the history from the opponent's seat.
func (h History) Swap() History {
	out := make(History, len(h))
	for i, m := range h {
		out[i] = Move{Self: m.Opponent, Opponent: m.Self}
	}
	return out
}

// SelfActions returns the learner's moves in order.
func (h History) SelfActions() []Action {
	out := make([]Action, len(h))
	for i, m := range h {
		out[i] = m.Self
	}
	return out
}

// OpponentActions returns the opponent's moves in order.
func (h History) OpponentActions() []Action {
	out := make([]Action, len(h))
	for i, m := range h {
		out[i] = m.Opponent
	}
	return out
}

// String renders the history as "CD DC ..." pairs.
func (h History) String() string {
	var b strings.Builder
	for i, m := range h {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%s", m.Self, m.Opponent)
	}
	return b.String()
}
