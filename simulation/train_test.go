package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

func TestConvergenceMonitorStreak(t *testing.T) {
	table := agent.NewValueTable()
	table.Set("", 1, 2)
	m := NewConvergenceMonitor(3)

	assert.False(t, m.Observe(table), "first observation only primes")
	assert.False(t, m.Observe(table))
	assert.False(t, m.Observe(table))
	assert.True(t, m.Observe(table))
	assert.Equal(t, 3, m.Streak())
}

func TestConvergenceMonitorResetsOnChange(t *testing.T) {
	table := agent.NewValueTable()
	m := NewConvergenceMonitor(2)

	m.Observe(table)
	m.Observe(table)
	assert.Equal(t, 1, m.Streak())

	table.Set("0", 0.5, 0)
	assert.False(t, m.Observe(table))
	assert.Equal(t, 0, m.Streak())

	table.Get("1")
	assert.False(t, m.Observe(table), "a new key counts as a change")
}

func TestConvergenceMonitorComparesContentNotRevision(t *testing.T) {
	table := agent.NewValueTable()
	table.Set("", 1, 1)
	m := NewConvergenceMonitor(1)
	m.Observe(table)

	// Two writes that cancel out bump the revision but leave the content equal.
	table.Set("", 2, 1)
	table.Set("", 1, 1)
	assert.True(t, m.Observe(table))
}

func TestConvergenceMonitorDisabled(t *testing.T) {
	m := NewConvergenceMonitor(0)
	table := agent.NewValueTable()
	for i := 0; i < 10; i++ {
		assert.False(t, m.Observe(table))
	}
}

func TestTrainStopsEarlyOnConvergence(t *testing.T) {
	// Against a cooperator with pure greedy play the table stops changing
	// only once every value has settled to float precision, so use a
	// one-round game with learning rate 1: values are exact after one visit.
	a := newAgent(t, func(c *agent.Config) {
		c.LearningRate = 1
		c.Memory = 0
	})
	tr := NewTrainer(TrainConfig{Epochs: 10000, Rounds: 1, ConvergenceEpochs: 50, SnapshotStride: 100}, game.DefaultPayoff())

	res, err := tr.Train(context.Background(), a, newStrategy(t, strategy.NameAlwaysCooperate))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Less(t, res.Epochs, 10000)
	assert.Equal(t, agent.Values{3, 5}, a.Table().Get(""))
	assert.Equal(t, 5.0, res.MaxReward)

	require.NotEmpty(t, res.Snapshots)
	assert.Equal(t, 0, res.Snapshots[0].Epoch)
	last := res.Snapshots[len(res.Snapshots)-1]
	assert.Equal(t, res.Epochs-1, last.Epoch, "final snapshot is taken on early stop")
}

func TestTrainSnapshotStride(t *testing.T) {
	a := newAgent(t, nil)
	tr := NewTrainer(TrainConfig{Epochs: 25, Rounds: 3, SnapshotStride: 10}, game.DefaultPayoff())

	res, err := tr.Train(context.Background(), a, newStrategy(t, strategy.NameTitForTat))
	require.NoError(t, err)

	require.Len(t, res.Snapshots, 3)
	for i, s := range res.Snapshots {
		assert.Equal(t, i*10, s.Epoch)
	}
	assert.False(t, res.Converged)
}

func TestTrainCallback(t *testing.T) {
	a := newAgent(t, nil)
	tr := NewTrainer(TrainConfig{Epochs: 7, Rounds: 2}, game.DefaultPayoff())
	var epochs []int
	tr.OnEpochComplete = func(epoch int, res EpisodeResult) {
		epochs = append(epochs, epoch)
		assert.Len(t, res.History, 2)
	}

	_, err := tr.Train(context.Background(), a, newStrategy(t, strategy.NameRandom))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, epochs)
}

func TestTrainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := newAgent(t, nil)
	tr := NewTrainer(TrainConfig{Epochs: 1000, Rounds: 4}, game.DefaultPayoff())
	tr.OnEpochComplete = func(epoch int, _ EpisodeResult) {
		if epoch == 9 {
			cancel()
		}
	}

	res, err := tr.Train(ctx, a, newStrategy(t, strategy.NameGrudger))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 10, res.Epochs, "games already started finish")
}

func TestTrainConfigValidate(t *testing.T) {
	assert.Error(t, TrainConfig{Epochs: 0, Rounds: 1}.Validate())
	assert.Error(t, TrainConfig{Epochs: 1, Rounds: 0}.Validate())
	assert.Error(t, TrainConfig{Epochs: 1, Rounds: 1, ConvergenceEpochs: -1}.Validate())
	assert.NoError(t, TrainConfig{Epochs: 1, Rounds: 1}.Validate())
}

func TestEvaluateReport(t *testing.T) {
	a := newAgent(t, func(c *agent.Config) { c.MinEpsilon = 0; c.Memory = 3 })
	a.Table().Set("", 0, 1)

	report, err := Evaluate(context.Background(), a, newStrategy(t, strategy.NameAlwaysCooperate),
		EvalConfig{Epochs: 20, Rounds: 1, Epsilon: 0, Samples: 2}, game.DefaultPayoff())
	require.NoError(t, err)

	assert.Equal(t, 20, report.Wins)
	assert.Zero(t, report.Ties+report.Losses)
	assert.Equal(t, 5.0, report.AvgReward)
	assert.Equal(t, 0.0, report.AvgOpponent)
	assert.Equal(t, 3.0, report.MutualCoopMark)
	assert.Equal(t, 1, report.TableSize)
	assert.Equal(t, 1, report.MaxTableSize)
	assert.Len(t, report.SampleGames, 2)
	assert.Equal(t, strategy.NameAlwaysCooperate, report.Opponent)
}

func TestEvaluateRejectsEmptyRun(t *testing.T) {
	_, err := Evaluate(context.Background(), newAgent(t, nil), newStrategy(t, strategy.NameGrudger),
		EvalConfig{}, game.DefaultPayoff())
	assert.Error(t, err)
}
