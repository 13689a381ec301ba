package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/evolution"
	"github.com/signalnine/dilemma/strategy"
	"github.com/signalnine/dilemma/store"
)

func newTournamentCmd() *cobra.Command {
	var (
		outputDir string
		resume    string
		dbPath    string
		learners  int
		src       tableSource
	)
	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Evolve the configured population through repeated pairwise play",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputDir == "" {
				outputDir = state.rt.Path(fmt.Sprintf("tournament-%s", time.Now().Format("20060102-150405")))
			}
			if dbPath == "" {
				dbPath = state.rt.DBPath
			}
			ctx, cancel := signalContext()
			defer cancel()

			var engine *evolution.Engine
			if resume != "" {
				fmt.Printf("Resuming from checkpoint: %s\n", resume)
				e, err := evolution.ResumeFromCheckpoint(resume, resumeBuilder(ctx, &src))
				if err != nil {
					return err
				}
				e.Config.Generations = state.cfg.Generations
				e.Config.NumWorkers = state.cfg.Workers
				engine = e
			} else {
				members, err := state.cfg.PopulationStrategies(state.roster)
				if err != nil {
					return err
				}
				if learners > 0 {
					players, err := learnerPlayers(ctx, &src, learners)
					if err != nil {
						return err
					}
					members = append(members, players...)
				}
				tc, err := state.cfg.TournamentConfig()
				if err != nil {
					return err
				}
				tc.RandomSeed = state.seed
				engine = evolution.NewEngine(tc, evolution.NewPopulation(members))
			}
			engine.Logger = state.log
			return runTournament(ctx, engine, outputDir, dbPath)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory (default: $DILEMMA_DATA_DIR/tournament-TIMESTAMP)")
	cmd.Flags().StringVar(&resume, "checkpoint", "", "Resume from checkpoint file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record generations in")
	cmd.Flags().IntVar(&learners, "learners", 0, "Add N greedy players per trained table to the population")
	cmd.Flags().StringVar(&src.file, "tables", "", "Table file for --learners (default: $DILEMMA_DATA_DIR/tables.fb)")
	return cmd
}

const learnerPrefix = "q_"

// learnerPlayers wraps every trained table in n independent players named
// after the strategy the table was trained against.
func learnerPlayers(ctx context.Context, src *tableSource, n int) ([]strategy.Strategy, error) {
	set, err := src.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []strategy.Strategy
	base := state.roster.Len()
	for _, t := range set.Tables() {
		cfg := state.cfg.AgentConfig()
		a, err := agent.NewWithTable(cfg, t.Values, rand.New(rand.NewSource(state.rng.Int63())))
		if err != nil {
			return nil, err
		}
		a.SetEpsilon(cfg.MinEpsilon)
		p := agent.NewPlayer(a, base+t.Identity, learnerPrefix+t.Name)
		for i := 0; i < n; i++ {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// resumeBuilder rebuilds checkpointed members. Learner players are restored
// from the table source, which is only read if the checkpoint holds any.
func resumeBuilder(ctx context.Context, src *tableSource) evolution.Builder {
	fromRoster := evolution.RosterBuilder(state.roster)
	var templates map[string]strategy.Strategy
	return func(m evolution.Member) (strategy.Strategy, error) {
		if !strings.HasPrefix(m.Name, learnerPrefix) {
			return fromRoster(m)
		}
		if templates == nil {
			players, err := learnerPlayers(ctx, src, 1)
			if err != nil {
				return nil, fmt.Errorf("restore learner %q: %w", m.Name, err)
			}
			templates = make(map[string]strategy.Strategy, len(players))
			for _, p := range players {
				templates[p.Name()] = p
			}
		}
		p, ok := templates[m.Name]
		if !ok {
			return nil, fmt.Errorf("no trained table for learner %q", m.Name)
		}
		return strategy.Clone(p), nil
	}
}

func runTournament(ctx context.Context, engine *evolution.Engine, outputDir, dbPath string) error {
	cfg := engine.Config
	checkpointPath := filepath.Join(outputDir, "checkpoint.json")

	var autoCheckpointer *evolution.AutoCheckpointer
	if state.cfg.CheckpointInterval > 0 {
		autoCheckpointer = evolution.NewAutoCheckpointer(engine, checkpointPath, state.cfg.CheckpointInterval)
	}

	fmt.Println()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Run:            %s\n", engine.RunID)
	fmt.Printf("  Population:     %d\n", engine.Population.Size())
	fmt.Printf("  Generations:    %d\n", cfg.Generations)
	fmt.Printf("  Interactions:   %d x %d rounds\n", cfg.Interactions, cfg.Rounds)
	fmt.Printf("  Reproduction:   %.2f (%d replaced)\n", cfg.ReproductionRate, evolution.ReplacementCount(engine.Population.Size(), cfg.ReproductionRate))
	fmt.Printf("  Seed:           %d\n", cfg.RandomSeed)
	fmt.Printf("  Output:         %s\n", outputDir)
	fmt.Println()

	startTime := time.Now()
	engine.OnGenerationComplete = func(g evolution.Generation) {
		if g.Index == 0 {
			return
		}
		fmt.Printf("\rGen %3d/%d | Best: %8.1f | Avg: %8.1f | %s",
			g.Index, cfg.Generations, g.BestFitness, g.AvgFitness, formatDuration(time.Since(startTime)))

		if autoCheckpointer != nil {
			if err := autoCheckpointer.Save(g.Index); err != nil {
				fmt.Printf("\nWarning: checkpoint save failed: %v\n", err)
			}
		}
	}

	history, runErr := engine.Run(ctx)
	fmt.Println()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nInterrupted! Saving checkpoint...")
	}

	if err := engine.SaveCheckpoint(checkpointPath); err != nil {
		return err
	}
	fmt.Printf("Checkpoint saved to %s\n", checkpointPath)

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		// The run may already be cancelled; the log is still written.
		if err := db.SaveGenerations(context.WithoutCancel(ctx), engine.RunID, cfg.RandomSeed, history); err != nil {
			return err
		}
	}

	printComposition(history)
	return runErr
}

func printComposition(history []evolution.Generation) {
	if len(history) == 0 {
		return
	}
	comp := evolution.Composition(history)
	names := make([]string, 0, len(comp))
	for name := range comp {
		names = append(names, name)
	}
	sort.Strings(names)

	last := len(history) - 1
	fmt.Println()
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println("                    POPULATION COMPOSITION")
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Printf("  %-26s %8s %8s %8s\n", "strategy", "start", "peak", "final")
	for _, name := range names {
		counts := comp[name]
		peak := 0
		for _, c := range counts {
			peak = max(peak, c)
		}
		fmt.Printf("  %-26s %8d %8d %8d\n", name, counts[0], peak, counts[last])
	}
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println()
}
