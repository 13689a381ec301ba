package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
)

func newInspectCmd() *cobra.Command {
	var (
		src      tableSource
		identity int
		key      string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a stored value table without modifying it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			set, err := src.load(ctx)
			if err != nil {
				return err
			}
			t, ok := set.Get(identity)
			if !ok {
				return fmt.Errorf("no table for identity %d", identity)
			}

			fmt.Printf("Table %d (%s): %d states\n", t.Identity, t.Name, t.Values.Len())
			if cmd.Flags().Changed("key") {
				return printKey(t.Values, game.StateKey(key))
			}
			for _, k := range t.Values.Keys() {
				v, _ := t.Values.Lookup(k)
				fmt.Printf("  %-20s C=%9.4f D=%9.4f best=%s\n", k, v[game.Cooperate], v[game.Defect], best(v))
			}
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().IntVar(&identity, "identity", 0, "Identity of the table to print")
	cmd.Flags().StringVar(&key, "key", "", "Print only this raw state key")
	return cmd
}

func printKey(t *agent.ValueTable, k game.StateKey) error {
	v, err := t.Inspect(k)
	if errors.Is(err, agent.ErrNoData) {
		fmt.Printf("  %s: never visited\n", k)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("  %s: C=%.4f D=%.4f best=%s\n", k, v[game.Cooperate], v[game.Defect], best(v))
	return nil
}

func best(v agent.Values) string {
	switch {
	case v[game.Cooperate] > v[game.Defect]:
		return game.Cooperate.String()
	case v[game.Defect] > v[game.Cooperate]:
		return game.Defect.String()
	}
	return "tie"
}
