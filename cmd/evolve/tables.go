package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/signalnine/dilemma/store"
)

// tableSource selects where trained tables are read from: a table file, or a
// run in a SQLite database.
type tableSource struct {
	file  string
	db    string
	runID string
}

func (s *tableSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "tables", "", "Table file (default: $DILEMMA_DATA_DIR/tables.fb)")
	cmd.Flags().StringVar(&s.db, "db", "", "Read tables from this SQLite database instead of a file")
	cmd.Flags().StringVar(&s.runID, "run", "", "Run ID to read from --db (default: latest training run)")
}

func (s *tableSource) load(ctx context.Context) (*store.Set, error) {
	if s.db == "" {
		path := s.file
		if path == "" {
			path = state.rt.Path("tables.fb")
		}
		set, runID, err := store.LoadFile(path)
		if err != nil {
			return nil, err
		}
		state.log.Debug().Str("file", path).Str("run_id", runID).Int("tables", set.Len()).Msg("tables loaded")
		return set, nil
	}

	db, err := store.Open(s.db)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var id uuid.UUID
	if s.runID != "" {
		id, err = uuid.Parse(s.runID)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", s.runID, err)
		}
	} else {
		info, err := db.LatestRun(ctx, store.KindTrain)
		if err != nil {
			return nil, err
		}
		id = info.ID
	}
	set, err := db.LoadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	state.log.Debug().Str("db", s.db).Str("run_id", id.String()).Int("tables", set.Len()).Msg("tables loaded")
	return set, nil
}
