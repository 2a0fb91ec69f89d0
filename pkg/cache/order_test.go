package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/word"
)

func TestDiscoveryOrderIsFixedOnFirstComparison(t *testing.T) {
	d := newDiscoveryOrder[string]()

	require.Equal(t, 0, d.compare("x", "x"))
	require.Equal(t, -1, d.compare("q", "b"))
	require.Equal(t, 1, d.compare("b", "q"))

	// a symbol seen later ranks after both
	require.Equal(t, 1, d.compare("a", "b"))
	require.Equal(t, -1, d.compare("q", "a"))
}

func TestLexCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     word.Word[string]
		expected int
	}{
		{name: "equal", a: word.Of("a", "b"), b: word.Of("a", "b"), expected: 0},
		{name: "prefix_first", a: word.Of("a"), b: word.Of("a", "b"), expected: -1},
		{name: "extension_last", a: word.Of("a", "b"), b: word.Of("a"), expected: 1},
		{name: "symbol_decides", a: word.Of("b"), b: word.Of("a", "z"), expected: 1},
		{name: "empty_first", a: word.Empty[string](), b: word.Of("a"), expected: -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, lexCompare(test.a, test.b, strings.Compare))
		})
	}
}
