// Package incremental contains partial Mealy machines that are built up from observed
// input/output pairs.
//
// A model only ever grows: an edge, once inserted, keeps its output for the lifetime of
// the model. Two implementations are provided. TreeModel links nodes by pointer and is
// the default; TableModel keeps every transition in a single flat table. Both can be
// exported to and rebuilt from a Snapshot.
package incremental

import (
	"errors"
	"fmt"

	"github.com/statesynth/mealycache/pkg/word"
)

const (
	FormatTree  = "tree"
	FormatTable = "table"
)

var (
	// ErrLengthMismatch is returned when an input word and its output word differ in length.
	ErrLengthMismatch = errors.New("input and output length differ")

	// ErrConflictingOutput is returned when an insertion disagrees with an output that is
	// already stored for the same input prefix.
	ErrConflictingOutput = errors.New("conflicting output for known input prefix")

	ErrUnknownFormat      = errors.New("unknown model format")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrCorruptSnapshot    = errors.New("corrupt snapshot")
)

// Model is a partial deterministic Mealy machine that grows from observations.
type Model[I, O comparable] interface {
	// Lookup returns the outputs along the longest known prefix of in. The length of the
	// result is the number of input symbols the model could follow.
	Lookup(in word.Word[I]) word.Word[O]

	// Insert records that in produces out. Re-inserting a known pair has no effect.
	// A pair that contradicts stored outputs is rejected with ErrConflictingOutput and
	// leaves the model untouched.
	Insert(in word.Word[I], out word.Word[O]) error

	// AddAlphabetSymbol registers a new input symbol. Known edges are unaffected.
	AddAlphabetSymbol(sym I)

	// Alphabet returns the registered input symbols in registration order.
	Alphabet() []I

	// Walk calls fn for every maximal known input word together with its output,
	// in alphabet order. It stops as soon as fn returns false.
	Walk(fn func(in word.Word[I], out word.Word[O]) bool)

	// Size returns the number of states, including the initial state.
	Size() int

	Format() string

	// Snapshot exports the complete model. The model can keep being used afterwards.
	Snapshot() *Snapshot[I, O]
}

// NewModel returns an empty model of the given format.
func NewModel[I, O comparable](format string) (Model[I, O], error) {
	switch format {
	case FormatTree:
		return NewTreeModel[I, O](), nil
	case FormatTable:
		return NewTableModel[I, O](), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func conflictError[I comparable](in word.Word[I], pos int) error {
	return fmt.Errorf("%w: input %s at position %d", ErrConflictingOutput, in, pos)
}

func checkLengths[I, O comparable](in word.Word[I], out word.Word[O]) error {
	if in.Len() != out.Len() {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrLengthMismatch, in.Len(), out.Len())
	}
	return nil
}

// alphabet is a growing set of input symbols that remembers registration order.
type alphabet[I comparable] struct {
	syms  []I
	index map[I]int
}

func newAlphabet[I comparable]() *alphabet[I] {
	return &alphabet[I]{index: map[I]int{}}
}

func (a *alphabet[I]) add(sym I) {
	if _, ok := a.index[sym]; ok {
		return
	}
	a.index[sym] = len(a.syms)
	a.syms = append(a.syms, sym)
}

func (a *alphabet[I]) addWord(w word.Word[I]) {
	for i := 0; i < w.Len(); i++ {
		a.add(w.At(i))
	}
}

func (a *alphabet[I]) list() []I {
	out := make([]I, len(a.syms))
	copy(out, a.syms)
	return out
}
