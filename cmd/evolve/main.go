// Package main provides the dilemma CLI: train value tables against known
// strategies, evaluate them, run evolutionary tournaments and play in
// identify-then-respond mode.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalnine/dilemma/config"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/internal/random"
	"github.com/signalnine/dilemma/strategy"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// app is the state shared by every subcommand, built before each run.
type app struct {
	cfg    *config.Config
	rt     config.Runtime
	log    zerolog.Logger
	rng    *rand.Rand
	seed   int64
	payoff game.PayoffMatrix
	roster *strategy.Roster
}

var (
	v          = viper.New()
	configPath string
	state      app
)

var rootCmd = &cobra.Command{
	Use:   "dilemma",
	Short: "Iterated prisoner's dilemma learning and evolution",
	Long: `dilemma trains tabular Q-learning agents against fixed strategies,
evaluates them, and evolves populations of strategies through repeated
pairwise tournaments.

Settings come from --config (yaml, json or toml), DILEMMA_* environment
variables and flags, in increasing order of precedence.`,
	Version:           fmt.Sprintf("%s (built %s)", Version, BuildTime),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file path")
	flags.Int64("seed", 0, "Random seed (0 = generate one)")
	flags.Int("workers", 0, "Parallel games (0 = one per CPU, 1 = sequential)")
	flags.Int("rounds", 0, "Rounds per game (overrides rounds_per_game)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")

	v.BindPFlag("seed", flags.Lookup("seed"))
	v.BindPFlag("workers", flags.Lookup("workers"))

	rootCmd.AddCommand(newTrainCmd(), newEvaluateCmd(), newTournamentCmd(), newPlayCmd(), newInspectCmd())
}

func setup(cmd *cobra.Command, _ []string) error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		rt.LogLevel = lvl
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		rt.LogFormat = format
	}
	logger, err := config.NewLogger(rt.LogLevel, rt.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	if rounds, _ := cmd.Flags().GetInt("rounds"); rounds > 0 {
		v.Set("rounds_per_game", rounds)
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	payoff, err := cfg.Payoff()
	if err != nil {
		return err
	}

	rng, seed := random.New(cfg.Seed)
	cfg.Seed = seed
	roster, err := cfg.Roster(rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return err
	}

	state = app{
		cfg:    cfg,
		rt:     rt,
		log:    logger,
		rng:    rng,
		seed:   seed,
		payoff: payoff,
		roster: roster,
	}
	logger.Debug().Int64("seed", seed).Strs("strategies", roster.Names()).Msg("configuration loaded")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
