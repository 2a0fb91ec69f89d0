package incremental

import (
	"fmt"

	"github.com/statesynth/mealycache/pkg/word"
)

// SnapshotVersion is the version written by Snapshot and the only one Restore accepts.
const SnapshotVersion = 1

// Edge is one transition of an exported model.
type Edge[I, O comparable] struct {
	From   int `json:"from"`
	Input  I   `json:"input"`
	Output O   `json:"output"`
	To     int `json:"to"`
}

// Snapshot is a plain-data export of a model. State 0 is the initial state and edges are
// listed breadth-first, so every edge's source state is introduced before it is used.
//
// Format names the implementation that produced the snapshot. Restore rebuilds a model of
// that same implementation.
type Snapshot[I, O comparable] struct {
	Format   string       `json:"format"`
	Version  int          `json:"version"`
	Alphabet []I          `json:"alphabet"`
	Edges    []Edge[I, O] `json:"edges"`
}

func newSnapshot[I, O comparable](format string, alphabet []I) *Snapshot[I, O] {
	return &Snapshot[I, O]{
		Format:   format,
		Version:  SnapshotVersion,
		Alphabet: alphabet,
	}
}

// States returns the number of states described by the snapshot.
func (s *Snapshot[I, O]) States() int {
	return len(s.Edges) + 1
}

type path[I, O comparable] struct {
	in  word.Word[I]
	out word.Word[O]
}

// Restore rebuilds the model described by snap.
func Restore[I, O comparable](snap *Snapshot[I, O]) (Model[I, O], error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrCorruptSnapshot)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}

	m, err := NewModel[I, O](snap.Format)
	if err != nil {
		return nil, err
	}

	for _, sym := range snap.Alphabet {
		m.AddAlphabetSymbol(sym)
	}

	paths := map[int]path[I, O]{0: {}}
	seen := map[tableKey[I]]struct{}{}
	inner := map[int]struct{}{}
	for i, e := range snap.Edges {
		from, ok := paths[e.From]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d leaves unknown state %d", ErrCorruptSnapshot, i, e.From)
		}
		if _, ok := paths[e.To]; ok {
			return nil, fmt.Errorf("%w: edge %d enters state %d twice", ErrCorruptSnapshot, i, e.To)
		}

		key := tableKey[I]{from: e.From, input: e.Input}
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: state %d has two edges for input %v", ErrCorruptSnapshot, e.From, e.Input)
		}
		seen[key] = struct{}{}
		inner[e.From] = struct{}{}

		paths[e.To] = path[I, O]{in: from.in.Append(e.Input), out: from.out.Append(e.Output)}
	}

	// leaves carry every prefix, so inserting them rebuilds the whole model
	for i := 0; i < len(snap.Edges); i++ {
		state := snap.Edges[i].To
		if _, ok := inner[state]; ok {
			continue
		}
		p := paths[state]
		if err := m.Insert(p.in, p.out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
		}
	}

	return m, nil
}
