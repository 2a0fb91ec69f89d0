// Package sink implements prefix-closure filtering of Mealy outputs: once an error symbol
// has been produced, every later output is forced to that error symbol's sink symbol.
package sink

import (
	"github.com/statesynth/mealycache/pkg/word"
)

// Filter maps error output symbols to sink output symbols. A Filter is immutable after
// construction.
//
// A nil *Filter means that no filtering is configured; callers distinguish that case from
// a configured filter for which Lookup reports that a symbol is not an error symbol.
type Filter[O comparable] struct {
	sinks map[O]O
}

// NewFilter returns a filter for the given error-to-sink mapping. The map is copied.
func NewFilter[O comparable](sinks map[O]O) *Filter[O] {
	m := make(map[O]O, len(sinks))
	for errSym, sinkSym := range sinks {
		m[errSym] = sinkSym
	}
	return &Filter[O]{sinks: m}
}

// Identity returns a filter where every given error symbol is its own sink.
func Identity[O comparable](errorSyms ...O) *Filter[O] {
	m := make(map[O]O, len(errorSyms))
	for _, s := range errorSyms {
		m[s] = s
	}
	return &Filter[O]{sinks: m}
}

// Lookup returns the sink symbol for o, and false if o is not an error symbol.
func (f *Filter[O]) Lookup(o O) (O, bool) {
	s, ok := f.sinks[o]
	return s, ok
}

func (f *Filter[O]) IsError(o O) bool {
	_, ok := f.sinks[o]
	return ok
}

func (f *Filter[O]) Len() int {
	return len(f.sinks)
}

// Mapping returns a copy of the error-to-sink mapping.
func (f *Filter[O]) Mapping() map[O]O {
	m := make(map[O]O, len(f.sinks))
	for k, v := range f.sinks {
		m[k] = v
	}
	return m
}

// Cut returns the length of the part of answer that carries information: everything up to
// and including the first error symbol. Without an error symbol it is answer.Len().
func (f *Filter[O]) Cut(answer word.Word[O]) int {
	for i := 0; i < answer.Len(); i++ {
		if f.IsError(answer.At(i)) {
			return i + 1
		}
	}
	return answer.Len()
}

// Collapse replaces every symbol after the first error symbol with that symbol's sink.
// Answers without an error symbol are returned unchanged.
func (f *Filter[O]) Collapse(answer word.Word[O]) word.Word[O] {
	n := f.Cut(answer)
	if n == answer.Len() {
		return answer
	}

	sinkSym, _ := f.Lookup(answer.At(n - 1))
	return word.NewBuilder[O](answer.Len()).
		AppendWord(answer.Prefix(n)).
		RepeatAppend(answer.Len()-n, sinkSym).
		Word()
}

// Complete extends a known output prefix to length n if the prefix ends with an error
// symbol. It returns false if the prefix cannot be completed by the sink rule.
func (f *Filter[O]) Complete(known word.Word[O], n int) (word.Word[O], bool) {
	last, ok := known.Last()
	if !ok {
		return word.Word[O]{}, false
	}

	sinkSym, ok := f.Lookup(last)
	if !ok {
		return word.Word[O]{}, false
	}

	return word.NewBuilder[O](n).
		AppendWord(known).
		RepeatAppend(n-known.Len(), sinkSym).
		Word(), true
}
