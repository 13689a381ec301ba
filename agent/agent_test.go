package agent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/dilemma/game"
)

func newTestAgent(t *testing.T, mutate func(*Config)) *Agent {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	return a
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.Epsilon)
	assert.Equal(t, 0.99, cfg.DecayRate)
	assert.Equal(t, 0.1, cfg.MinEpsilon)
	assert.Equal(t, 1000, cfg.Memory)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero learning rate":   func(c *Config) { c.LearningRate = 0 },
		"discount above one":   func(c *Config) { c.Discount = 1.5 },
		"min above initial":    func(c *Config) { c.MinEpsilon = 0.5; c.Epsilon = 0.2 },
		"negative min epsilon": func(c *Config) { c.MinEpsilon = -0.1 },
		"zero decay":           func(c *Config) { c.DecayRate = 0 },
		"negative memory":      func(c *Config) { c.Memory = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err, "random source is required")
}

func TestEpsilonDecaySchedule(t *testing.T) {
	a := newTestAgent(t, func(c *Config) {
		c.Epsilon = 1
		c.DecayRate = 0.99
		c.MinEpsilon = 0.1
	})

	prev := a.Epsilon()
	for n := 1; n <= 500; n++ {
		a.PickAction(nil, n%2 == 0)
		want := math.Max(math.Pow(0.99, float64(n)), 0.1)
		require.InDelta(t, want, a.Epsilon(), 1e-9, "after %d calls", n)
		require.LessOrEqual(t, a.Epsilon(), prev)
		require.GreaterOrEqual(t, a.Epsilon(), 0.1)
		prev = a.Epsilon()
	}
}

func TestSetEpsilonClamps(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 0.8; c.MinEpsilon = 0.05 })

	a.SetEpsilon(2)
	assert.Equal(t, 0.8, a.Epsilon())
	a.SetEpsilon(0)
	assert.Equal(t, 0.05, a.Epsilon())
	a.SetEpsilon(0.3)
	assert.Equal(t, 0.3, a.Epsilon())
}

func TestPickActionCreatesEntry(t *testing.T) {
	a := newTestAgent(t, nil)
	h := game.History{{Self: game.Cooperate, Opponent: game.Defect}}

	a.PickAction(h, false)
	_, ok := a.Table().Lookup(a.Key(h))
	assert.True(t, ok)
}

func TestPickActionCuriosityForcesZeroValuedAction(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 0; c.MinEpsilon = 0 })

	a.Table().Set("", 0, 2.5)
	for i := 0; i < 50; i++ {
		require.Equal(t, game.Cooperate, a.PickAction(nil, true))
	}

	a.Table().Set("", -1, 0)
	for i := 0; i < 50; i++ {
		require.Equal(t, game.Defect, a.PickAction(nil, true))
	}
}

func TestPickActionCuriosityTreatsLearnedZeroAsUnvisited(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 0; c.MinEpsilon = 0 })

	// Cooperate converged to exactly zero; curiosity still prefers it even
	// though defecting is worth more.
	a.Table().Set("", 0, 1)
	assert.Equal(t, game.Cooperate, a.PickAction(nil, true))
	assert.Equal(t, game.Defect, a.PickAction(nil, false))
}

func TestPickActionTieIsRandom(t *testing.T) {
	for _, curious := range []bool{true, false} {
		a := newTestAgent(t, func(c *Config) { c.Epsilon = 0; c.MinEpsilon = 0 })
		a.Table().Set("", 1, 1+1e-6)

		counts := map[game.Action]int{}
		for i := 0; i < 400; i++ {
			counts[a.PickAction(nil, curious)]++
		}
		assert.Greater(t, counts[game.Cooperate], 100, "curious=%v", curious)
		assert.Greater(t, counts[game.Defect], 100, "curious=%v", curious)
	}
}

func TestPickActionGreedy(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 0; c.MinEpsilon = 0 })

	a.Table().Set("", 2, 1)
	for i := 0; i < 50; i++ {
		require.Equal(t, game.Cooperate, a.PickAction(nil, false))
		require.Equal(t, game.Cooperate, a.PickAction(nil, true))
	}

	a.Table().Set("", -3, -1)
	for i := 0; i < 50; i++ {
		require.Equal(t, game.Defect, a.PickAction(nil, false))
	}
}

func TestPickActionExploresWithEpsilon(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 1; c.MinEpsilon = 1; c.DecayRate = 1 })
	a.Table().Set("", 5, 1)

	counts := map[game.Action]int{}
	for i := 0; i < 400; i++ {
		counts[a.PickAction(nil, false)]++
	}
	assert.Greater(t, counts[game.Defect], 100)
}

func TestPickActionIsDeterministicUnderSeed(t *testing.T) {
	run := func() []game.Action {
		a := newTestAgent(t, nil)
		var out []game.Action
		var h game.History
		for i := 0; i < 100; i++ {
			act := a.PickAction(h, i%3 == 0)
			out = append(out, act)
			h = h.Append(game.Move{Self: act, Opponent: game.Action(i % 2)})
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestUpdateTerminalConvergesToReward(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.LearningRate = 0.1 })

	for i := 0; i < 500; i++ {
		a.Update("", game.Defect, 4, "3", true)
	}
	v := a.Table().Get("")
	assert.InDelta(t, 4.0, v[game.Defect], 1e-6)
	assert.Equal(t, 0.0, v[game.Cooperate])

	_, ok := a.Table().Lookup("3")
	assert.False(t, ok, "terminal transitions do not touch the next state")
}

func TestUpdateUsesDiscountedFuture(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.LearningRate = 0.5; c.Discount = 0.9 })
	a.Table().Set("0", 2, 4)
	a.Table().Set("", 1, 0)
	a.Table().Set("3", 100, 100)

	a.Update("", game.Defect, 1, "0", false)

	// target = 1 + 0.9*4 = 4.6; 0 + 0.5*(4.6-0) = 2.3
	assert.InDelta(t, 2.3, a.Table().Get("")[game.Defect], 1e-12)
	assert.Equal(t, 1.0, a.Table().Get("")[game.Cooperate])
	assert.Equal(t, Values{2, 4}, a.Table().Get("0"))
	assert.Equal(t, Values{100, 100}, a.Table().Get("3"))
}

func TestUpdateInitializesUnseenNextState(t *testing.T) {
	a := newTestAgent(t, nil)
	a.Update("", game.Cooperate, 3, "0", false)

	_, ok := a.Table().Lookup("0")
	assert.True(t, ok)
	assert.Equal(t, 2, a.Table().Len())
}

func TestLearnTruncatesToMemory(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Memory = 1 })
	prev := game.History{{Self: game.Cooperate, Opponent: game.Cooperate}, {Self: game.Defect, Opponent: game.Defect}}
	curr := prev.Append(game.Move{Self: game.Cooperate, Opponent: game.Defect})

	a.Learn(prev, curr, game.Cooperate, 1, false)

	assert.ElementsMatch(t, []game.StateKey{"3", "1"}, a.Table().Keys())
}

func TestPlayerAdapter(t *testing.T) {
	a := newTestAgent(t, func(c *Config) { c.Epsilon = 0; c.MinEpsilon = 0; c.Memory = 1 })
	a.Table().Set("", 0, 1)  // open with defect
	a.Table().Set("1", 1, 0) // after (C, D) cooperate
	a.Table().Set("3", 0, 1) // after (D, D) defect

	p := NewPlayer(a, 7, "q")
	p.Reset()
	assert.Equal(t, game.Defect, p.Play())
	p.Update(game.Defect)
	assert.Equal(t, game.Defect, p.Play())
	assert.Equal(t, 7, p.ID())
	assert.Equal(t, "q", p.Name())

	c := p.Clone().(*Player)
	c.Agent().Table().Set("", 1, 0)
	assert.Equal(t, Values{0, 1}, a.Table().Get(""), "clone owns its table")

	p.Reset()
	assert.Equal(t, game.Defect, p.Play())
}
