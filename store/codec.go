package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/game"
	"github.com/signalnine/dilemma/store/tablefb"
)

// ErrCorrupt is returned when a buffer cannot be decoded.
var ErrCorrupt = errors.New("corrupt table file")

// EncodeTables serializes s. runID is stored verbatim and may be empty.
func EncodeTables(s *Set, runID string) []byte {
	builder := flatbuffers.NewBuilder(1024)

	tables := s.Tables()
	tableOffsets := make([]flatbuffers.UOffsetT, len(tables))
	for i, t := range tables {
		tableOffsets[i] = serializeTable(builder, t)
	}

	tablefb.TableSetStartTablesVector(builder, len(tableOffsets))
	// Add in reverse order (FlatBuffers convention)
	for i := len(tableOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(tableOffsets[i])
	}
	tablesVec := builder.EndVector(len(tableOffsets))

	var runOffset flatbuffers.UOffsetT
	if runID != "" {
		runOffset = builder.CreateString(runID)
	}

	tablefb.TableSetStart(builder)
	tablefb.TableSetAddTables(builder, tablesVec)
	if runOffset > 0 {
		tablefb.TableSetAddRunId(builder, runOffset)
	}
	builder.Finish(tablefb.TableSetEnd(builder))

	return builder.FinishedBytes()
}

func serializeTable(builder *flatbuffers.Builder, t Table) flatbuffers.UOffsetT {
	snapshot := t.Values.Snapshot()
	keys := t.Values.Keys()

	// Strings and child tables must be built before the parent is started.
	entryOffsets := make([]flatbuffers.UOffsetT, len(keys))
	for i, k := range keys {
		keyOffset := builder.CreateString(string(k))
		v := snapshot[k]
		tablefb.EntryStart(builder)
		tablefb.EntryAddKey(builder, keyOffset)
		tablefb.EntryAddCooperate(builder, v[game.Cooperate])
		tablefb.EntryAddDefect(builder, v[game.Defect])
		entryOffsets[i] = tablefb.EntryEnd(builder)
	}

	tablefb.ValueTableStartEntriesVector(builder, len(entryOffsets))
	for i := len(entryOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(entryOffsets[i])
	}
	entriesVec := builder.EndVector(len(entryOffsets))
	nameOffset := builder.CreateString(t.Name)

	tablefb.ValueTableStart(builder)
	tablefb.ValueTableAddIdentity(builder, int32(t.Identity))
	tablefb.ValueTableAddName(builder, nameOffset)
	tablefb.ValueTableAddEntries(builder, entriesVec)
	return tablefb.ValueTableEnd(builder)
}

// DecodeTables parses a buffer produced by EncodeTables.
func DecodeTables(buf []byte) (set *Set, runID string, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrCorrupt, len(buf))
	}
	// Accessors index the buffer directly and panic on bad offsets.
	defer func() {
		if r := recover(); r != nil {
			set, runID, err = nil, "", fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()

	root := tablefb.GetRootAsTableSet(buf, 0)
	set = NewSet()
	fbTable := new(tablefb.ValueTable)
	entry := new(tablefb.Entry)
	for i := 0; i < root.TablesLength(); i++ {
		if !root.Tables(fbTable, i) {
			continue
		}
		values := make(map[game.StateKey]agent.Values, fbTable.EntriesLength())
		for j := 0; j < fbTable.EntriesLength(); j++ {
			if !fbTable.Entries(entry, j) {
				continue
			}
			key := game.StateKey(entry.Key())
			if _, err := key.Decode(); err != nil {
				return nil, "", fmt.Errorf("%w: table %d: %v", ErrCorrupt, fbTable.Identity(), err)
			}
			c, d := entry.Cooperate(), entry.Defect()
			if math.IsNaN(c) || math.IsNaN(d) {
				return nil, "", fmt.Errorf("%w: table %d key %q: NaN value", ErrCorrupt, fbTable.Identity(), string(key))
			}
			values[key] = agent.Values{c, d}
		}
		t := agent.NewValueTable()
		t.Restore(values)
		if err := set.Add(int(fbTable.Identity()), string(fbTable.Name()), t); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	return set, string(root.RunId()), nil
}

// SaveFile writes s to path atomically.
func SaveFile(path string, s *Set, runID string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, EncodeTables(s, runID), 0644); err != nil {
		return fmt.Errorf("failed to write tables: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize tables: %w", err)
	}
	return nil
}

// LoadFile reads a table file written by SaveFile.
func LoadFile(path string) (*Set, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read tables: %w", err)
	}
	return DecodeTables(data)
}
