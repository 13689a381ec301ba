package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/simulation"
)

func newEvaluateCmd() *cobra.Command {
	var src tableSource
	var verbose bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Play trained tables against the strategies they were trained on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			set, err := src.load(ctx)
			if err != nil {
				return err
			}
			evalCfg := state.cfg.EvalConfig()
			if verbose {
				evalCfg.Samples = 3
			}

			for id, name := range state.roster.Names() {
				t, ok := set.Get(id)
				if !ok || t.Name != name {
					fmt.Printf("%s: no trained table\n\n", name)
					continue
				}
				a, err := agent.NewWithTable(state.cfg.AgentConfig(), t.Values, rand.New(rand.NewSource(state.rng.Int63())))
				if err != nil {
					return err
				}
				opponent, err := state.roster.New(id)
				if err != nil {
					return err
				}
				report, err := simulation.Evaluate(ctx, a, opponent, evalCfg, state.payoff)
				if err != nil {
					return err
				}
				printReport(report, verbose)
			}
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print sample games")
	return cmd
}

func printReport(r simulation.EvalReport, verbose bool) {
	games := r.Wins + r.Ties + r.Losses
	fmt.Printf("Against %s (%d games)\n", r.Opponent, games)
	fmt.Printf("  Wins/Ties/Losses:   %d/%d/%d\n", r.Wins, r.Ties, r.Losses)
	fmt.Printf("  Avg reward:         %.2f (opponent %.2f)\n", r.AvgReward, r.AvgOpponent)
	fmt.Printf("  Mutual cooperation: %.2f\n", r.MutualCoopMark)
	fmt.Printf("  Table size:         %d of %d possible states\n", r.TableSize, r.MaxTableSize)
	if verbose {
		for i, g := range r.SampleGames {
			fmt.Printf("  Game %d: %s (%.0f vs %.0f)\n", i+1, g.History, g.LearnerReward, g.OpponentReward)
		}
	}
	fmt.Println()
}
