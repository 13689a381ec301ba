package agent

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalnine/dilemma/game"
)

// ErrNoData is returned by Inspect for keys that were never visited.
var ErrNoData = errors.New("no data for state key")

// Values holds the learned value of cooperating (index 0) and defecting
// (index 1) in one state.
type Values [game.NumActions]float64

// Max returns the larger of the two values.
func (v Values) Max() float64 {
	if v[game.Defect] > v[game.Cooperate] {
		return v[game.Defect]
	}
	return v[game.Cooperate]
}

// ValueTable maps state keys to action values. Entries are created lazily
// and never removed.
type ValueTable struct {
	values   map[game.StateKey]Values
	revision uint64
}

// NewValueTable returns an empty table.
func NewValueTable() *ValueTable {
	return &ValueTable{values: make(map[game.StateKey]Values)}
}

// Get returns the values for key, creating a (0,0) entry on first access.
func (t *ValueTable) Get(key game.StateKey) Values {
	v, ok := t.values[key]
	if !ok {
		t.values[key] = Values{}
		t.revision++
	}
	return v
}

// Set overwrites both values for key.
func (t *ValueTable) Set(key game.StateKey, cooperate, defect float64) {
	t.store(key, Values{cooperate, defect})
}

// SetComponent overwrites the value of one action, creating the entry if needed.
func (t *ValueTable) SetComponent(key game.StateKey, a game.Action, value float64) {
	v := t.values[key]
	v[a] = value
	t.store(key, v)
}

func (t *ValueTable) store(key game.StateKey, v Values) {
	old, ok := t.values[key]
	if ok && old == v {
		return
	}
	t.values[key] = v
	t.revision++
}

// Lookup reads key without creating it.
func (t *ValueTable) Lookup(key game.StateKey) (Values, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Inspect is Lookup with an error for unvisited keys, so callers can tell
// "never seen" apart from "seen with value 0".
func (t *ValueTable) Inspect(key game.StateKey) (Values, error) {
	v, ok := t.values[key]
	if !ok {
		return Values{}, fmt.Errorf("%w: %q", ErrNoData, string(key))
	}
	return v, nil
}

// Len returns the number of visited states.
func (t *ValueTable) Len() int {
	return len(t.values)
}

// Revision counts content changes: new keys and changed values.
func (t *ValueTable) Revision() uint64 {
	return t.revision
}

// Keys returns all visited keys, shortest first then lexicographic.
func (t *ValueTable) Keys() []game.StateKey {
	keys := make([]game.StateKey, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Snapshot returns a copy of the table contents.
func (t *ValueTable) Snapshot() map[game.StateKey]Values {
	out := make(map[game.StateKey]Values, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Restore replaces the table contents with values.
func (t *ValueTable) Restore(values map[game.StateKey]Values) {
	t.values = make(map[game.StateKey]Values, len(values))
	for k, v := range values {
		t.values[k] = v
	}
	t.revision++
}

// Clone returns an independent copy.
func (t *ValueTable) Clone() *ValueTable {
	return &ValueTable{values: t.Snapshot(), revision: t.revision}
}

// Equal reports whether both tables hold exactly the same entries.
func (t *ValueTable) Equal(other *ValueTable) bool {
	return EqualValues(t.values, other.values)
}

// EqualValues compares two snapshots entry by entry.
func EqualValues(a, b map[game.StateKey]Values) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || v != w {
			return false
		}
	}
	return true
}
