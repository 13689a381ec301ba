package simulation

import (
	"context"
	"math/rand"
	"testing"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

func benchPairs(b *testing.B, n int) []Pair {
	b.Helper()
	r, err := strategy.NewRoster(strategy.Builtins(), rand.New(rand.NewSource(42)))
	if err != nil {
		b.Fatal(err)
	}
	pairs := make([]Pair, n)
	for i := range pairs {
		a, _ := r.New(i % r.Len())
		o, _ := r.New((i + 1) % r.Len())
		pairs[i] = Pair{A: a, B: o}
	}
	return pairs
}

func benchPlayPairs(b *testing.B, n, workers int) {
	pairs := benchPairs(b, n)
	payoff := game.DefaultPayoff()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := PlayPairs(context.Background(), pairs, 50, payoff, workers); err != nil {
			b.Fatal(err)
		}
	}
}

// ===================================================================
// SERIAL BASELINE BENCHMARKS
// ===================================================================

func BenchmarkSerial_Pairs10(b *testing.B)   { benchPlayPairs(b, 10, 1) }
func BenchmarkSerial_Pairs100(b *testing.B)  { benchPlayPairs(b, 100, 1) }
func BenchmarkSerial_Pairs1000(b *testing.B) { benchPlayPairs(b, 1000, 1) }

// ===================================================================
// PARALLEL BENCHMARKS (MATCHING BATCH SIZES)
// ===================================================================

func BenchmarkParallel_Pairs10(b *testing.B)   { benchPlayPairs(b, 10, 0) }
func BenchmarkParallel_Pairs100(b *testing.B)  { benchPlayPairs(b, 100, 0) }
func BenchmarkParallel_Pairs1000(b *testing.B) { benchPlayPairs(b, 1000, 0) }

// ===================================================================
// WORKER COUNT VARIATION BENCHMARKS (1000 PAIRS)
// ===================================================================

func BenchmarkParallel_2Workers_Pairs1000(b *testing.B) { benchPlayPairs(b, 1000, 2) }
func BenchmarkParallel_4Workers_Pairs1000(b *testing.B) { benchPlayPairs(b, 1000, 4) }
func BenchmarkParallel_8Workers_Pairs1000(b *testing.B) { benchPlayPairs(b, 1000, 8) }

// ===================================================================
// THROUGHPUT BENCHMARKS (for games/sec measurement)
// ===================================================================

func BenchmarkThroughput_Training(b *testing.B) {
	r, err := strategy.NewRoster([]string{strategy.NameTitForTat}, rand.New(rand.NewSource(42)))
	if err != nil {
		b.Fatal(err)
	}
	learner, err := agent.New(agent.DefaultConfig(), rand.New(rand.NewSource(7)))
	if err != nil {
		b.Fatal(err)
	}
	tft, _ := r.New(0)
	payoff := game.DefaultPayoff()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PlayEpisode(learner, tft, 50, true, payoff)
	}
	b.StopTimer()

	gamesPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(gamesPerSec, "games/sec")
}
