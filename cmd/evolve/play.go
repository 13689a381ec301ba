package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/identify"
)

func newPlayCmd() *cobra.Command {
	var (
		src      tableSource
		fallback int
		byLength int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Identify random opponents and answer with their trained tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			set, err := src.load(ctx)
			if err != nil {
				return err
			}
			agents, err := set.Agents(state.cfg.AgentConfig(), state.rng)
			if err != nil {
				return err
			}
			for _, a := range agents {
				a.SetEpsilon(state.cfg.TestEpsilon)
			}

			var opts []identify.Option
			if fallback >= 0 {
				opts = append(opts, identify.WithFallback(fallback))
			}
			lib, err := identify.NewLibrary(agents, opts...)
			if err != nil {
				return err
			}

			ev := identify.NewEvaluator(identify.NewFingerprintPredictor(state.roster), lib, state.roster, state.payoff)
			ev.Logger = state.log

			for epoch := 0; epoch < state.cfg.TestEpochs; epoch++ {
				rep, err := ev.EvaluateAccuracy(ctx, identify.AccuracyConfig{
					Games:  state.cfg.TestGames,
					Rounds: state.cfg.RoundsPerGame,
				})
				if err != nil {
					return err
				}
				fmt.Printf("EPOCH %d\n", epoch)
				fmt.Printf("  Prediction accuracy:      %.2f\n", rep.Accuracy)
				fmt.Printf("  Total reward:             %.0f\n", rep.TotalReward)
				fmt.Printf("  Average reward per game:  %.2f\n", rep.AvgPerGame)
				fmt.Printf("  Average reward per round: %.2f\n", rep.AvgPerRound)
			}

			if byLength > 0 {
				acc, err := ev.AccuracyByLength(ctx, byLength, state.cfg.TestGames)
				if err != nil {
					return err
				}
				fmt.Println("\nAccuracy by game length:")
				for i, a := range acc {
					fmt.Printf("  %3d rounds: %.2f\n", i+1, a)
				}
			}
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().IntVar(&fallback, "fallback", -1, "Identity whose table answers unknown predictions (-1 = fail)")
	cmd.Flags().IntVar(&byLength, "by-length", 0, "Also report accuracy for game lengths 1..N")
	return cmd
}
