package cache

import (
	"context"

	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/oracle"
	"github.com/statesynth/mealycache/pkg/word"
)

// ConsistencyTest checks hypotheses against what a cache already knows, without asking the
// system under test anything.
type ConsistencyTest[I, O comparable] struct {
	model incremental.Model[I, O]
}

var _ oracle.EquivalenceOracle[string, string] = (*ConsistencyTest[string, string])(nil)

// CreateConsistencyTest returns a consistency test over the current model. Queries processed
// later are visible to it; a model swapped in by Resume is not.
func (o *Oracle[I, O]) CreateConsistencyTest() *ConsistencyTest[I, O] {
	return &ConsistencyTest[I, O]{model: o.model}
}

// FindCounterexample returns the shortest prefix of a cached word on which hyp disagrees with
// the cache, or nil if hyp agrees with every cached word. Only words over inputs are
// considered; an empty inputs slice considers every known symbol.
func (c *ConsistencyTest[I, O]) FindCounterexample(
	ctx context.Context,
	hyp oracle.Hypothesis[I, O],
	inputs []I,
) (*oracle.Counterexample[I, O], error) {
	allowed := make(map[I]struct{}, len(inputs))
	for _, sym := range inputs {
		allowed[sym] = struct{}{}
	}

	var (
		found *oracle.Counterexample[I, O]
		err   error
	)
	c.model.Walk(func(in word.Word[I], out word.Word[O]) bool {
		if err = ctx.Err(); err != nil {
			return false
		}

		if len(allowed) > 0 {
			n := 0
			for n < in.Len() {
				if _, ok := allowed[in.At(n)]; !ok {
					break
				}
				n++
			}
			in, out = in.Prefix(n), out.Prefix(n)
		}

		if i := firstDifference(out, hyp.ComputeOutput(in)); i >= 0 {
			found = &oracle.Counterexample[I, O]{Input: in.Prefix(i + 1), Output: out.Prefix(i + 1)}
			return false
		}
		return true
	})

	return found, err
}

// firstDifference returns the first position at which got does not match want, or -1.
func firstDifference[O comparable](want, got word.Word[O]) int {
	for i := 0; i < want.Len(); i++ {
		if i >= got.Len() || want.At(i) != got.At(i) {
			return i
		}
	}
	return -1
}
