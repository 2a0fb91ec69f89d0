// Package word contains the immutable symbol sequences exchanged between learners,
// caches and systems under test.
package word

import (
	"fmt"
	"strings"
)

// Word is an immutable, finite sequence of symbols. The zero value is the empty word.
type Word[S comparable] struct {
	syms []S
}

// Empty returns the word of length zero.
func Empty[S comparable]() Word[S] {
	return Word[S]{}
}

// Of returns a word made of the given symbols.
func Of[S comparable](syms ...S) Word[S] {
	return FromSlice(syms)
}

// FromSlice copies s into a new word. Later changes to s do not affect the word.
func FromSlice[S comparable](s []S) Word[S] {
	if len(s) == 0 {
		return Word[S]{}
	}

	syms := make([]S, len(s))
	copy(syms, s)
	return Word[S]{syms: syms}
}

func (w Word[S]) Len() int {
	return len(w.syms)
}

func (w Word[S]) IsEmpty() bool {
	return len(w.syms) == 0
}

// At returns the symbol at index i. It panics if i is out of range, like a slice index.
func (w Word[S]) At(i int) S {
	return w.syms[i]
}

// Last returns the final symbol, or false for the empty word.
func (w Word[S]) Last() (S, bool) {
	if len(w.syms) == 0 {
		var zero S
		return zero, false
	}
	return w.syms[len(w.syms)-1], true
}

// Symbols returns a copy of the symbols of w.
func (w Word[S]) Symbols() []S {
	out := make([]S, len(w.syms))
	copy(out, w.syms)
	return out
}

// Prefix returns the first n symbols of w. n is clamped to [0, w.Len()].
func (w Word[S]) Prefix(n int) Word[S] {
	return w.Slice(0, n)
}

// Suffix returns w without its first from symbols.
func (w Word[S]) Suffix(from int) Word[S] {
	return w.Slice(from, len(w.syms))
}

// Slice returns the symbols in [from, to). Bounds are clamped to the word.
//
// The returned word shares storage with w, which is safe because neither can be mutated.
func (w Word[S]) Slice(from, to int) Word[S] {
	from = clamp(from, 0, len(w.syms))
	to = clamp(to, from, len(w.syms))
	if from == to {
		return Word[S]{}
	}
	return Word[S]{syms: w.syms[from:to:to]}
}

// Concat returns w followed by o.
func (w Word[S]) Concat(o Word[S]) Word[S] {
	if o.IsEmpty() {
		return w
	}
	if w.IsEmpty() {
		return o
	}

	syms := make([]S, 0, len(w.syms)+len(o.syms))
	syms = append(syms, w.syms...)
	syms = append(syms, o.syms...)
	return Word[S]{syms: syms}
}

// Append returns w followed by the given symbols.
func (w Word[S]) Append(s ...S) Word[S] {
	return w.Concat(FromSlice(s))
}

// Equal reports whether both words have the same length and the same symbols in order.
func (w Word[S]) Equal(o Word[S]) bool {
	if len(w.syms) != len(o.syms) {
		return false
	}
	return w.sharesPrefix(o, len(w.syms))
}

// IsPrefixOf reports whether w is a (not necessarily proper) prefix of o.
func (w Word[S]) IsPrefixOf(o Word[S]) bool {
	if len(w.syms) > len(o.syms) {
		return false
	}
	return w.sharesPrefix(o, len(w.syms))
}

func (w Word[S]) sharesPrefix(o Word[S], n int) bool {
	for i := 0; i < n; i++ {
		if w.syms[i] != o.syms[i] {
			return false
		}
	}
	return true
}

func (w Word[S]) String() string {
	parts := make([]string, len(w.syms))
	for i, s := range w.syms {
		parts[i] = fmt.Sprint(s)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
