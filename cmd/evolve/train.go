package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/simulation"
	"github.com/signalnine/dilemma/store"
)

func newTrainCmd() *cobra.Command {
	var (
		out         string
		dbPath      string
		snapshotDir string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one value table per configured strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = state.rt.Path("tables.fb")
			}
			if dbPath == "" {
				dbPath = state.rt.DBPath
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runTrain(ctx, out, dbPath, snapshotDir)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Table file to write (default: $DILEMMA_DATA_DIR/tables.fb)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record the run in")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Write table snapshots (snapshot_stride) as JSON here")
	return cmd
}

func runTrain(ctx context.Context, out, dbPath, snapshotDir string) error {
	cfg := state.cfg
	trainer := simulation.NewTrainer(cfg.TrainConfig(), state.payoff)
	trainer.Logger = state.log

	set := store.NewSet()
	runID := uuid.New()
	start := time.Now()

	fmt.Printf("Training %d tables for %d epochs (%d rounds each)\n\n", state.roster.Len(), cfg.TrainingEpochs, cfg.RoundsPerGame)
	for id, name := range state.roster.Names() {
		a, err := agent.New(cfg.AgentConfig(), rand.New(rand.NewSource(state.rng.Int63())))
		if err != nil {
			return err
		}
		opponent, err := state.roster.New(id)
		if err != nil {
			return err
		}

		res, err := trainer.Train(ctx, a, opponent)
		if err != nil {
			return fmt.Errorf("train against %s: %w", name, err)
		}
		if err := set.Add(id, name, a.Table()); err != nil {
			return err
		}

		fmt.Printf("  %-24s epochs=%-6d states=%-5d max_reward=%-7.1f converged=%v\n",
			name, res.Epochs, a.Table().Len(), res.MaxReward, res.Converged)

		if snapshotDir != "" && len(res.Snapshots) > 0 {
			if err := writeSnapshots(filepath.Join(snapshotDir, name+"_snapshots.json"), res.Snapshots); err != nil {
				return err
			}
		}
	}

	if err := store.SaveFile(out, set, runID.String()); err != nil {
		return err
	}
	fmt.Printf("\nSaved tables to %s (run %s, %s)\n", out, runID, formatDuration(time.Since(start)))

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveRun(ctx, runID, state.seed, set); err != nil {
			return err
		}
		state.log.Info().Str("db", dbPath).Str("run_id", runID.String()).Msg("run recorded")
	}
	return nil
}

type snapshotOutput struct {
	Epoch  int                   `json:"epoch"`
	Values map[string][2]float64 `json:"values"`
}

func writeSnapshots(path string, snapshots []simulation.TableSnapshot) error {
	out := make([]snapshotOutput, len(snapshots))
	for i, s := range snapshots {
		values := make(map[string][2]float64, len(s.Values))
		for k, v := range s.Values {
			values[k.String()] = v
		}
		out[i] = snapshotOutput{Epoch: s.Epoch, Values: values}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
