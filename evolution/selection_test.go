package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/dilemma/strategy"
)

func TestReplacementCount(t *testing.T) {
	tests := []struct {
		size int
		rate float64
		want int
	}{
		{10, 0, 0},
		{10, 0.1, 1},
		{10, 0.25, 2},
		{10, 0.5, 5},
		{10, 1, 5},
		{7, 1, 3},
		{10, -0.5, 0},
		{10, 3, 5},
		{0, 0.5, 0},
		{1, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplacementCount(tt.size, tt.rate), "size=%d rate=%v", tt.size, tt.rate)
	}
}

func TestReplaceMirrorsTopRanks(t *testing.T) {
	r := newRoster(t)
	var individuals []*Individual
	for i, name := range []string{
		strategy.NameAlwaysDefect, strategy.NameAlwaysCooperate, strategy.NameGrudger,
		strategy.NamePavlov, strategy.NameTitForTat, strategy.NameRandom,
	} {
		s, err := r.NewByName(name)
		require.NoError(t, err)
		individuals = append(individuals, &Individual{Strategy: s, Fitness: float64(i)})
	}
	before := append([]*Individual(nil), individuals...)

	Replace(individuals, 2)

	assert.Equal(t, strategy.NameRandom, individuals[0].Strategy.Name())
	assert.Equal(t, strategy.NameTitForTat, individuals[1].Strategy.Name())
	assert.Equal(t, 5.0, individuals[0].Fitness)
	assert.Equal(t, 4.0, individuals[1].Fitness)
	for i := 2; i < len(individuals); i++ {
		assert.Same(t, before[i], individuals[i], "position %d must be untouched", i)
	}

	// Copies are independent instances.
	assert.NotSame(t, individuals[5].Strategy, individuals[0].Strategy)
	assert.NotSame(t, individuals[4].Strategy, individuals[1].Strategy)
}

func TestReplaceNeverExceedsHalf(t *testing.T) {
	r := newRoster(t)
	individuals := make([]*Individual, 4)
	for i := range individuals {
		s, err := r.New(i)
		require.NoError(t, err)
		individuals[i] = &Individual{Strategy: s, Fitness: float64(i)}
	}
	top := individuals[2:]
	top = append([]*Individual(nil), top...)

	Replace(individuals, 10)

	assert.Same(t, top[0], individuals[2])
	assert.Same(t, top[1], individuals[3])
	assert.Equal(t, individuals[3].Strategy.Name(), individuals[0].Strategy.Name())
	assert.Equal(t, individuals[2].Strategy.Name(), individuals[1].Strategy.Name())
}
