package simulation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/strategy"
)

// Pair is one scheduled game between two strategies.
type Pair struct {
	A, B strategy.Strategy
}

// PlayPair plays one non-training game between two strategies.
func PlayPair(p Pair, rounds int, payoff game.PayoffMatrix) EpisodeResult {
	return PlayEpisode(AsLearner(p.A), p.B, rounds, false, payoff)
}

// PlayPairs plays every pair and returns results in input order.
//
// Games run on up to workers goroutines (0 = one per CPU, 1 = sequential).
// Concurrency is only used when no strategy instance appears in more than one
// pair; otherwise the games run one after another. Strategies are compared by
// identity, so implementations must be pointer types.
func PlayPairs(ctx context.Context, pairs []Pair, rounds int, payoff game.PayoffMatrix, workers int) ([]EpisodeResult, error) {
	results := make([]EpisodeResult, len(pairs))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers == 1 || len(pairs) < 2 || !disjoint(pairs) {
		for i, p := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = PlayPair(p, rounds, payoff)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = PlayPair(p, rounds, payoff)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func disjoint(pairs []Pair) bool {
	seen := make(map[strategy.Strategy]struct{}, 2*len(pairs))
	for _, p := range pairs {
		for _, s := range [2]strategy.Strategy{p.A, p.B} {
			if _, dup := seen[s]; dup {
				return false
			}
			seen[s] = struct{}{}
		}
	}
	return true
}
