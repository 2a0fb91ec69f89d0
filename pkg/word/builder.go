package word

// Builder accumulates symbols and produces a Word. The zero value is ready to use.
type Builder[S comparable] struct {
	syms []S
}

// NewBuilder returns a builder with room for capacity symbols.
func NewBuilder[S comparable](capacity int) *Builder[S] {
	return &Builder[S]{syms: make([]S, 0, capacity)}
}

func (b *Builder[S]) Append(s ...S) *Builder[S] {
	b.syms = append(b.syms, s...)
	return b
}

func (b *Builder[S]) AppendWord(w Word[S]) *Builder[S] {
	b.syms = append(b.syms, w.syms...)
	return b
}

// RepeatAppend appends n copies of s.
func (b *Builder[S]) RepeatAppend(n int, s S) *Builder[S] {
	for i := 0; i < n; i++ {
		b.syms = append(b.syms, s)
	}
	return b
}

func (b *Builder[S]) Len() int {
	return len(b.syms)
}

// Last returns the most recently appended symbol, or false if the builder is empty.
func (b *Builder[S]) Last() (S, bool) {
	if len(b.syms) == 0 {
		var zero S
		return zero, false
	}
	return b.syms[len(b.syms)-1], true
}

// Word returns the accumulated symbols as a word. The builder can keep being used afterwards.
func (b *Builder[S]) Word() Word[S] {
	return FromSlice(b.syms)
}
