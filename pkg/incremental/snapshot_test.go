package incremental

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/word"
)

func populate(t *testing.T, m Model[string, string]) {
	t.Helper()
	m.AddAlphabetSymbol("a")
	m.AddAlphabetSymbol("b")
	require.NoError(t, m.Insert(word.Of("a", "a"), word.Of("0", "1")))
	require.NoError(t, m.Insert(word.Of("a", "b", "a"), word.Of("0", "err", "err")))
	require.NoError(t, m.Insert(word.Of("b"), word.Of("1")))
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			m := newModel(t, format)
			populate(t, m)

			snap := m.Snapshot()
			require.Equal(t, format, snap.Format)
			require.Equal(t, SnapshotVersion, snap.Version)
			require.Equal(t, m.Size(), snap.States())

			restored, err := Restore(snap)
			require.NoError(t, err)
			require.Equal(t, format, restored.Format())
			require.Equal(t, m.Alphabet(), restored.Alphabet())

			m.Walk(func(in word.Word[string], out word.Word[string]) bool {
				require.Equal(t, out, restored.Lookup(in))
				return true
			})

			if diff := cmp.Diff(snap, restored.Snapshot()); diff != "" {
				t.Fatalf("re-exported snapshot differs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshotsAgreeAcrossFormats(t *testing.T) {
	tree := NewTreeModel[string, string]()
	table := NewTableModel[string, string]()
	populate(t, tree)
	populate(t, table)

	treeSnap, tableSnap := tree.Snapshot(), table.Snapshot()
	require.Equal(t, treeSnap.Edges, tableSnap.Edges)
	require.NotEqual(t, treeSnap.Format, tableSnap.Format)
}

func TestTableSnapshotIsBreadthFirst(t *testing.T) {
	m := NewTableModel[string, string]()
	m.AddAlphabetSymbol("a")
	m.AddAlphabetSymbol("b")
	// the deep word is inserted first, so its states get the lowest internal ids
	require.NoError(t, m.Insert(word.Of("a", "a", "a"), word.Of("0", "0", "0")))
	require.NoError(t, m.Insert(word.Of("b"), word.Of("1")))

	expected := []Edge[string, string]{
		{From: 0, Input: "a", Output: "0", To: 1},
		{From: 0, Input: "b", Output: "1", To: 2},
		{From: 1, Input: "a", Output: "0", To: 3},
		{From: 3, Input: "a", Output: "0", To: 4},
	}
	if diff := cmp.Diff(expected, m.Snapshot().Edges); diff != "" {
		t.Fatalf("edges differ (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	m := NewTreeModel[string, string]()
	populate(t, m)

	snap := m.Snapshot()
	edges := len(snap.Edges)
	require.NoError(t, m.Insert(word.Of("b", "b"), word.Of("1", "1")))
	require.Len(t, snap.Edges, edges)
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name     string
		snap     *Snapshot[string, string]
		expected error
	}{
		{
			name:     "nil",
			snap:     nil,
			expected: ErrCorruptSnapshot,
		},
		{
			name:     "future_version",
			snap:     &Snapshot[string, string]{Format: FormatTree, Version: SnapshotVersion + 1},
			expected: ErrUnsupportedVersion,
		},
		{
			name:     "unknown_format",
			snap:     &Snapshot[string, string]{Format: "dag", Version: SnapshotVersion},
			expected: ErrUnknownFormat,
		},
		{
			name: "dangling_edge",
			snap: &Snapshot[string, string]{
				Format:  FormatTree,
				Version: SnapshotVersion,
				Edges:   []Edge[string, string]{{From: 4, Input: "a", Output: "0", To: 1}},
			},
			expected: ErrCorruptSnapshot,
		},
		{
			name: "duplicate_transition",
			snap: &Snapshot[string, string]{
				Format:  FormatTable,
				Version: SnapshotVersion,
				Edges: []Edge[string, string]{
					{From: 0, Input: "a", Output: "0", To: 1},
					{From: 0, Input: "a", Output: "1", To: 2},
				},
			},
			expected: ErrCorruptSnapshot,
		},
		{
			name: "state_entered_twice",
			snap: &Snapshot[string, string]{
				Format:  FormatTable,
				Version: SnapshotVersion,
				Edges: []Edge[string, string]{
					{From: 0, Input: "a", Output: "0", To: 1},
					{From: 0, Input: "b", Output: "1", To: 1},
				},
			},
			expected: ErrCorruptSnapshot,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Restore(test.snap)
			require.ErrorIs(t, err, test.expected)
		})
	}
}
