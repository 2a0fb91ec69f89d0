package cache

import (
	"cmp"

	"github.com/statesynth/mealycache/pkg/word"
)

// discoveryOrder ranks symbols in the order they are first compared. Once two symbols have
// been ranked their relative order never changes, which makes grouping deterministic for
// symbol types without a natural order.
type discoveryOrder[I comparable] struct {
	rank map[I]int
}

func newDiscoveryOrder[I comparable]() *discoveryOrder[I] {
	return &discoveryOrder[I]{rank: map[I]int{}}
}

func (d *discoveryOrder[I]) of(sym I) int {
	r, ok := d.rank[sym]
	if !ok {
		r = len(d.rank)
		d.rank[sym] = r
	}
	return r
}

func (d *discoveryOrder[I]) compare(a, b I) int {
	if a == b {
		return 0
	}
	ra := d.of(a)
	rb := d.of(b)
	return cmp.Compare(ra, rb)
}

// lexCompare orders words lexicographically by symCmp; a proper prefix sorts before its
// extensions.
func lexCompare[I comparable](a, b word.Word[I], symCmp func(I, I) int) int {
	n := min(a.Len(), b.Len())
	for i := 0; i < n; i++ {
		if c := symCmp(a.At(i), b.At(i)); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Len(), b.Len())
}
