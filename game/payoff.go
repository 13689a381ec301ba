// Package game holds the rules of the iterated prisoner's dilemma: actions,
// move histories, state keys and payoff lookup.
package game

import (
	"errors"
	"fmt"
)

// Action is a single binary choice in one round.
type Action uint8

const (
	Cooperate Action = 0
	Defect    Action = 1
)

// NumActions is the size of the action space.
const NumActions = 2

// String returns "C" or "D".
func (a Action) String() string {
	if a == Cooperate {
		return "C"
	}
	return "D"
}

// Opposite returns the other action.
func (a Action) Opposite() Action {
	return 1 - a
}

// Outcome indexes a payoff matrix row.
type Outcome int

const (
	BothCooperate Outcome = iota // (C, C)
	SelfExploited                // (C, D)
	SelfExploits                 // (D, C)
	BothDefect                   // (D, D)
)

// OutcomeOf maps a joint action to its payoff row.
func OutcomeOf(self, opp Action) Outcome {
	return Outcome(int(self)*2 + int(opp))
}

// PayoffMatrix holds one row per outcome, ordered (C,C), (C,D), (D,C), (D,D).
// Column 0 is the payoff of the row player, column 1 the payoff of its opponent.
type PayoffMatrix [4][2]float64

// ErrInvalidPayoff is returned for payoff tables that are not 4x2.
var ErrInvalidPayoff = errors.New("payoff matrix must have 4 rows of 2 cells")

// DefaultPayoff returns the classic matrix with T=5, R=3, P=1, S=0.
func DefaultPayoff() PayoffMatrix {
	return PayoffMatrix{
		{3, 3},
		{0, 5},
		{5, 0},
		{1, 1},
	}
}

// NewPayoffMatrix validates a row-major table. Missing or extra cells are
// rejected rather than filled in.
func NewPayoffMatrix(rows [][]float64) (PayoffMatrix, error) {
	var m PayoffMatrix
	if len(rows) != len(m) {
		return m, fmt.Errorf("%w: got %d rows", ErrInvalidPayoff, len(rows))
	}
	for i, row := range rows {
		if len(row) != 2 {
			return PayoffMatrix{}, fmt.Errorf("%w: row %d has %d cells", ErrInvalidPayoff, i, len(row))
		}
		m[i][0], m[i][1] = row[0], row[1]
	}
	return m, nil
}

// Rows returns the matrix as a slice table, the inverse of NewPayoffMatrix.
func (m PayoffMatrix) Rows() [][]float64 {
	rows := make([][]float64, len(m))
	for i := range m {
		rows[i] = []float64{m[i][0], m[i][1]}
	}
	return rows
}

// Mirror returns the matrix seen from the opponent's seat.
func (m PayoffMatrix) Mirror() PayoffMatrix {
	return PayoffMatrix{
		{m[BothCooperate][1], m[BothCooperate][0]},
		{m[SelfExploits][1], m[SelfExploits][0]},
		{m[SelfExploited][1], m[SelfExploited][0]},
		{m[BothDefect][1], m[BothDefect][0]},
	}
}

// Reward looks up the payoffs for a joint action.
func (m PayoffMatrix) Reward(self, opp Action) (float64, float64) {
	return GetReward(self, opp, m)
}

// GetReward returns (self, opponent) payoffs for one round.
func GetReward(self, opp Action, m PayoffMatrix) (float64, float64) {
	row := m[OutcomeOf(self, opp)]
	return row[0], row[1]
}
