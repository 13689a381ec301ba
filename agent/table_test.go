package agent

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/dilemma/game"
)

func TestValueTableSetGet(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	table := NewValueTable()

	for i := 0; i < 100; i++ {
		key := game.StateKey([]byte{byte('0' + rng.Intn(4)), byte('0' + rng.Intn(4))})
		a, b := rng.NormFloat64()*10, rng.NormFloat64()*10
		table.Set(key, a, b)
		assert.Equal(t, Values{a, b}, table.Get(key))
	}
}

func TestValueTableGetAutoInitializes(t *testing.T) {
	table := NewValueTable()

	_, ok := table.Lookup("0")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())

	assert.Equal(t, Values{}, table.Get("0"))
	assert.Equal(t, 1, table.Len())

	v, ok := table.Lookup("0")
	assert.True(t, ok)
	assert.Equal(t, Values{}, v)
}

func TestValueTableInspectDistinguishesUnvisited(t *testing.T) {
	table := NewValueTable()
	table.Set("1", 0, 0)

	v, err := table.Inspect("1")
	require.NoError(t, err)
	assert.Equal(t, Values{0, 0}, v)

	_, err = table.Inspect("2")
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, 1, table.Len(), "inspection must not create entries")
}

func TestValueTableRevision(t *testing.T) {
	table := NewValueTable()
	r0 := table.Revision()

	table.Get("")
	r1 := table.Revision()
	assert.Greater(t, r1, r0, "new key is a change")

	table.Get("")
	assert.Equal(t, r1, table.Revision(), "reading an existing key is not")

	table.Set("", 0, 0)
	assert.Equal(t, r1, table.Revision(), "rewriting identical values is not")

	table.SetComponent("", game.Defect, 2)
	assert.Greater(t, table.Revision(), r1)
}

func TestValueTableCloneAndEqual(t *testing.T) {
	table := NewValueTable()
	table.Set("", 1, 2)
	table.Set("3", -1, 0.5)

	clone := table.Clone()
	assert.True(t, table.Equal(clone))

	clone.Set("3", -1, 0.25)
	assert.False(t, table.Equal(clone))
	assert.Equal(t, Values{-1, 0.5}, table.Get("3"))

	clone.Set("3", -1, 0.5)
	clone.Get("33")
	assert.False(t, table.Equal(clone), "extra key")
}

func TestValueTableKeysOrdered(t *testing.T) {
	table := NewValueTable()
	for _, k := range []game.StateKey{"12", "", "3", "01", "0"} {
		table.Get(k)
	}
	assert.Equal(t, []game.StateKey{"", "0", "3", "01", "12"}, table.Keys())
}

func TestValueTableRestore(t *testing.T) {
	table := NewValueTable()
	table.Get("0")
	rev := table.Revision()

	table.Restore(map[game.StateKey]Values{"1": {1, 2}})
	assert.Equal(t, 1, table.Len())
	_, ok := table.Lookup("0")
	assert.False(t, ok)
	assert.Greater(t, table.Revision(), rev)
}

func TestValuesMax(t *testing.T) {
	assert.Equal(t, 2.0, Values{1, 2}.Max())
	assert.Equal(t, 1.0, Values{1, -2}.Max())
}
