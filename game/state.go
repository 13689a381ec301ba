package game

import "fmt"

// StateKey identifies a truncated move history. Each move is one byte,
// '0' + 2*self + opponent, so keys are exact and compare with ==.
// The empty key is the start-of-game state.
type StateKey string

const keyBase = '0'

// Encode truncates h to its last window moves and returns their key.
func Encode(h History, window int) StateKey {
	tail := h.Tail(window)
	buf := make([]byte, len(tail))
	for i, m := range tail {
		buf[i] = byte(keyBase + OutcomeOf(m.Self, m.Opponent))
	}
	return StateKey(buf)
}

// Len returns the number of moves encoded in k.
func (k StateKey) Len() int {
	return len(k)
}

// Decode reverses Encode.
func (k StateKey) Decode() (History, error) {
	h := make(History, len(k))
	for i := 0; i < len(k); i++ {
		c := k[i]
		if c < keyBase || c > keyBase+byte(BothDefect) {
			return nil, fmt.Errorf("invalid state key byte %q at %d", c, i)
		}
		o := c - keyBase
		h[i] = Move{Self: Action(o >> 1), Opponent: Action(o & 1)}
	}
	return h, nil
}

// String renders the key as a move history; the empty key prints as "<start>".
func (k StateKey) String() string {
	if k == "" {
		return "<start>"
	}
	h, err := k.Decode()
	if err != nil {
		return string(k)
	}
	return h.String()
}

// MaxStates bounds the number of keys a learner can visit in games of the
// given length: the sum of 4^i for i below min(rounds, window+1).
func MaxStates(rounds, window int) int {
	limit := window + 1
	if rounds < limit {
		limit = rounds
	}
	total, pow := 0, 1
	for i := 0; i < limit; i++ {
		total += pow
		pow *= 4
	}
	return total
}
