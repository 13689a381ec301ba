package store

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/evolution"
	"github.com/signalnine/dilemma/game"
)

func sampleSet(t *testing.T) *Set {
	t.Helper()
	s := NewSet()

	coop := agent.NewValueTable()
	coop.Set("", 1.5, -0.25)
	coop.Set(game.Encode(game.History{{Self: game.Cooperate, Opponent: game.Defect}}, 1), 0, 2)
	// Visited but never updated.
	coop.Get(game.Encode(game.History{{Self: game.Defect, Opponent: game.Defect}}, 1))
	require.NoError(t, s.Add(0, "always_cooperate", coop))

	defect := agent.NewValueTable()
	defect.Set("13", 3, 4.75)
	require.NoError(t, s.Add(1, "always_defect", defect))

	require.NoError(t, s.Add(2, "grudger", agent.NewValueTable()))
	return s
}

func assertSameSet(t *testing.T, want, got *Set) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for _, w := range want.Tables() {
		g, ok := got.Get(w.Identity)
		require.True(t, ok, "identity %d missing", w.Identity)
		assert.Equal(t, w.Name, g.Name)
		assert.True(t, w.Values.Equal(g.Values), "identity %d values differ", w.Identity)
		assert.Equal(t, w.Values.Keys(), g.Values.Keys())
	}
}

func TestSetAdd(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(3, "pavlov", agent.NewValueTable()))
	assert.Error(t, s.Add(3, "pavlov", agent.NewValueTable()))
	assert.Error(t, s.Add(4, "x", nil))

	require.NoError(t, s.Add(1, "grudger", agent.NewValueTable()))
	tables := s.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables[0].Identity)
	assert.Equal(t, 3, tables[1].Identity)
}

func TestEncodeDecode(t *testing.T) {
	want := sampleSet(t)
	buf := EncodeTables(want, "run-7")

	got, runID, err := DecodeTables(buf)
	require.NoError(t, err)
	assert.Equal(t, "run-7", runID)
	assertSameSet(t, want, got)

	// Visited zero entries survive and stay distinct from unvisited keys.
	coop, _ := got.Get(0)
	v, err := coop.Values.Inspect("3")
	require.NoError(t, err)
	assert.Equal(t, agent.Values{0, 0}, v)
	v, err = coop.Values.Inspect("1")
	require.NoError(t, err)
	assert.Equal(t, agent.Values{0, 2}, v)
	_, err = coop.Values.Inspect("2")
	assert.ErrorIs(t, err, agent.ErrNoData)
}

func TestEncodeEmptySet(t *testing.T) {
	got, runID, err := DecodeTables(EncodeTables(NewSet(), ""))
	require.NoError(t, err)
	assert.Empty(t, runID)
	assert.Zero(t, got.Len())
}

func TestDecodeCorrupt(t *testing.T) {
	_, _, err := DecodeTables([]byte{1})
	assert.ErrorIs(t, err, ErrCorrupt)

	_, _, err = DecodeTables([]byte{0xff, 0xff, 0xff, 0x7f, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileRoundTrip(t *testing.T) {
	want := sampleSet(t)
	path := filepath.Join(t.TempDir(), "models", "tables.fb")

	require.NoError(t, SaveFile(path, want, ""))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, _, err := LoadFile(path)
	require.NoError(t, err)
	assertSameSet(t, want, got)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.fb"))
	assert.Error(t, err)
}

func TestSetAgents(t *testing.T) {
	s := sampleSet(t)
	agents, err := s.Agents(agent.DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, agents, 3)

	tbl, _ := s.Get(1)
	assert.Same(t, tbl.Values, agents[1].Table())
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "dilemma.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	want := sampleSet(t)
	runID := uuid.New()

	require.NoError(t, db.SaveRun(ctx, runID, 42, want))
	got, err := db.LoadRun(ctx, runID)
	require.NoError(t, err)
	assertSameSet(t, want, got)

	info, err := db.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, runID, info.ID)
	assert.Equal(t, KindTrain, info.Kind)
	assert.Equal(t, int64(42), info.Seed)

	// Saving again replaces the tables of the run.
	smaller := NewSet()
	require.NoError(t, smaller.Add(5, "pavlov", agent.NewValueTable()))
	require.NoError(t, db.SaveRun(ctx, runID, 42, smaller))
	got, err = db.LoadRun(ctx, runID)
	require.NoError(t, err)
	assertSameSet(t, smaller, got)
}

func TestSQLiteMissingRun(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	_, err := db.LoadRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.LatestRun(ctx, KindTrain)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteLatestRun(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, db.SaveRun(ctx, first, 1, sampleSet(t)))
	require.NoError(t, db.SaveRun(ctx, second, 2, sampleSet(t)))

	latest, err := db.LatestRun(ctx, KindTrain)
	require.NoError(t, err)
	assert.Equal(t, second, latest.ID)

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
}

func TestSQLiteGenerations(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	runID := uuid.New()
	now := time.Now()

	gens := []evolution.Generation{
		{
			Index:     0,
			Members:   []evolution.Member{{ID: 0, Name: "grudger"}, {ID: 1, Name: "pavlov"}},
			Counts:    map[string]int{"grudger": 1, "pavlov": 1},
			Timestamp: now,
		},
		{
			Index:       1,
			Members:     []evolution.Member{{ID: 0, Name: "grudger"}, {ID: 0, Name: "grudger"}},
			Counts:      map[string]int{"grudger": 2},
			BestFitness: 30,
			AvgFitness:  25.5,
			Timestamp:   now,
		},
	}
	require.NoError(t, db.SaveGenerations(ctx, runID, 9, gens))

	got, err := db.LoadGenerations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range gens {
		assert.Equal(t, gens[i].Index, got[i].Index)
		assert.Equal(t, gens[i].Members, got[i].Members)
		assert.Equal(t, gens[i].Counts, got[i].Counts)
		assert.Equal(t, gens[i].BestFitness, got[i].BestFitness)
		assert.Equal(t, gens[i].AvgFitness, got[i].AvgFitness)
		assert.Equal(t, gens[i].Timestamp.UnixNano(), got[i].Timestamp.UnixNano())
	}

	latest, err := db.LatestRun(ctx, KindTournament)
	require.NoError(t, err)
	assert.Equal(t, runID, latest.ID)
}
