package oracle

import (
	"context"

	"github.com/statesynth/mealycache/pkg/word"
)

// Hypothesis is a learned Mealy machine that can be run on input words.
type Hypothesis[I, O comparable] interface {
	ComputeOutput(input word.Word[I]) word.Word[O]
}

// Counterexample is an input word on which a hypothesis and the reference behavior disagree.
// Output is the reference output.
type Counterexample[I, O comparable] struct {
	Input  word.Word[I]
	Output word.Word[O]
}

// EquivalenceOracle searches for a counterexample to a hypothesis over the given inputs.
// It returns nil if none was found.
type EquivalenceOracle[I, O comparable] interface {
	FindCounterexample(ctx context.Context, hyp Hypothesis[I, O], inputs []I) (*Counterexample[I, O], error)
}
