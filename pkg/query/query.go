// Package query defines membership queries: an input word and the output word the system
// under test produces for it.
package query

import (
	"errors"
	"fmt"

	"github.com/statesynth/mealycache/pkg/word"
)

var (
	ErrAlreadyAnswered = errors.New("query already answered")
	ErrLengthMismatch  = errors.New("answer length does not match input length")
)

// Query is a membership query for a Mealy-style system: the answer has one output symbol per
// input symbol. The answer can be assigned exactly once.
type Query[I, O comparable] struct {
	input    word.Word[I]
	output   word.Word[O]
	answered bool
}

func New[I, O comparable](input word.Word[I]) *Query[I, O] {
	return &Query[I, O]{input: input}
}

// Batch returns one fresh query per input word.
func Batch[I, O comparable](inputs ...word.Word[I]) []*Query[I, O] {
	qs := make([]*Query[I, O], len(inputs))
	for i, in := range inputs {
		qs[i] = New[I, O](in)
	}
	return qs
}

func (q *Query[I, O]) Input() word.Word[I] {
	return q.input
}

// Answer assigns the output word.
func (q *Query[I, O]) Answer(output word.Word[O]) error {
	if q.answered {
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, q.input)
	}
	if output.Len() != q.input.Len() {
		return fmt.Errorf("%w: input %s, output %s", ErrLengthMismatch, q.input, output)
	}

	q.output = output
	q.answered = true
	return nil
}

// Output returns the answer, and false if the query has not been answered yet.
func (q *Query[I, O]) Output() (word.Word[O], bool) {
	return q.output, q.answered
}

func (q *Query[I, O]) Answered() bool {
	return q.answered
}

func (q *Query[I, O]) String() string {
	if !q.answered {
		return fmt.Sprintf("Query[%s | ?]", q.input)
	}
	return fmt.Sprintf("Query[%s | %s]", q.input, q.output)
}

// Inputs returns the input words of qs in order.
func Inputs[I, O comparable](qs []*Query[I, O]) []word.Word[I] {
	out := make([]word.Word[I], len(qs))
	for i, q := range qs {
		out[i] = q.input
	}
	return out
}
