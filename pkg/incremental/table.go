package incremental

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/statesynth/mealycache/pkg/word"
)

type tableKey[I comparable] struct {
	from  int
	input I
}

type tableEntry[O comparable] struct {
	output O
	to     int
}

// TableModel stores observations as integer states and one flat transition table keyed by
// (state, input). State 0 is the initial state; states are numbered in creation order.
type TableModel[I, O comparable] struct {
	edges    map[tableKey[I]]tableEntry[O]
	alphabet *alphabet[I]
	states   int
}

var _ Model[string, string] = (*TableModel[string, string])(nil)

func NewTableModel[I, O comparable]() *TableModel[I, O] {
	return &TableModel[I, O]{
		edges:    map[tableKey[I]]tableEntry[O]{},
		alphabet: newAlphabet[I](),
		states:   1,
	}
}

func (m *TableModel[I, O]) Format() string {
	return FormatTable
}

func (m *TableModel[I, O]) Size() int {
	return m.states
}

func (m *TableModel[I, O]) AddAlphabetSymbol(sym I) {
	m.alphabet.add(sym)
}

func (m *TableModel[I, O]) Alphabet() []I {
	return m.alphabet.list()
}

func (m *TableModel[I, O]) Lookup(in word.Word[I]) word.Word[O] {
	b := word.NewBuilder[O](in.Len())
	state := 0
	for i := 0; i < in.Len(); i++ {
		e, ok := m.edges[tableKey[I]{from: state, input: in.At(i)}]
		if !ok {
			break
		}
		b.Append(e.output)
		state = e.to
	}
	return b.Word()
}

func (m *TableModel[I, O]) Insert(in word.Word[I], out word.Word[O]) error {
	if err := checkLengths(in, out); err != nil {
		return err
	}

	state := 0
	i := 0
	for ; i < in.Len(); i++ {
		e, ok := m.edges[tableKey[I]{from: state, input: in.At(i)}]
		if !ok {
			break
		}
		if e.output != out.At(i) {
			return conflictError(in, i)
		}
		state = e.to
	}

	m.alphabet.addWord(in)
	for ; i < in.Len(); i++ {
		next := m.states
		m.states++
		m.edges[tableKey[I]{from: state, input: in.At(i)}] = tableEntry[O]{output: out.At(i), to: next}
		state = next
	}

	return nil
}

type tableFrame[I, O comparable] struct {
	state int
	in    word.Word[I]
	out   word.Word[O]
}

func (m *TableModel[I, O]) Walk(fn func(in word.Word[I], out word.Word[O]) bool) {
	if len(m.edges) == 0 {
		return
	}

	syms := m.alphabet.syms
	stack := arraystack.New()
	stack.Push(tableFrame[I, O]{state: 0})
	for !stack.Empty() {
		v, _ := stack.Pop()
		f := v.(tableFrame[I, O])

		leaf := true
		for j := len(syms) - 1; j >= 0; j-- {
			e, ok := m.edges[tableKey[I]{from: f.state, input: syms[j]}]
			if !ok {
				continue
			}
			leaf = false
			stack.Push(tableFrame[I, O]{
				state: e.to,
				in:    f.in.Append(syms[j]),
				out:   f.out.Append(e.output),
			})
		}

		if leaf && !fn(f.in, f.out) {
			return
		}
	}
}

func (m *TableModel[I, O]) Snapshot() *Snapshot[I, O] {
	snap := newSnapshot[I, O](FormatTable, m.alphabet.list())

	// renumber breadth-first so that snapshots do not depend on insertion order
	ids := map[int]int{0: 0}
	queue := linkedlistqueue.New()
	queue.Enqueue(0)
	for !queue.Empty() {
		v, _ := queue.Dequeue()
		state := v.(int)
		for _, sym := range m.alphabet.syms {
			e, ok := m.edges[tableKey[I]{from: state, input: sym}]
			if !ok {
				continue
			}
			ids[e.to] = len(ids)
			snap.Edges = append(snap.Edges, Edge[I, O]{
				From:   ids[state],
				Input:  sym,
				Output: e.output,
				To:     ids[e.to],
			})
			queue.Enqueue(e.to)
		}
	}

	return snap
}
