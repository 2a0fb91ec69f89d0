package incremental

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/statesynth/mealycache/pkg/word"
)

type treeEdge[I, O comparable] struct {
	output O
	target *treeNode[I, O]
}

type treeNode[I, O comparable] struct {
	children map[I]*treeEdge[I, O]
}

func newTreeNode[I, O comparable]() *treeNode[I, O] {
	return &treeNode[I, O]{children: map[I]*treeEdge[I, O]{}}
}

// TreeModel stores observations as a prefix tree of pointer-linked nodes.
type TreeModel[I, O comparable] struct {
	root     *treeNode[I, O]
	alphabet *alphabet[I]
	size     int
}

var _ Model[string, string] = (*TreeModel[string, string])(nil)

func NewTreeModel[I, O comparable]() *TreeModel[I, O] {
	return &TreeModel[I, O]{
		root:     newTreeNode[I, O](),
		alphabet: newAlphabet[I](),
		size:     1,
	}
}

func (t *TreeModel[I, O]) Format() string {
	return FormatTree
}

func (t *TreeModel[I, O]) Size() int {
	return t.size
}

func (t *TreeModel[I, O]) AddAlphabetSymbol(sym I) {
	t.alphabet.add(sym)
}

func (t *TreeModel[I, O]) Alphabet() []I {
	return t.alphabet.list()
}

func (t *TreeModel[I, O]) Lookup(in word.Word[I]) word.Word[O] {
	b := word.NewBuilder[O](in.Len())
	node := t.root
	for i := 0; i < in.Len(); i++ {
		e, ok := node.children[in.At(i)]
		if !ok {
			break
		}
		b.Append(e.output)
		node = e.target
	}
	return b.Word()
}

func (t *TreeModel[I, O]) Insert(in word.Word[I], out word.Word[O]) error {
	if err := checkLengths(in, out); err != nil {
		return err
	}

	// follow the known part first so that a conflict is reported before anything changes
	node := t.root
	i := 0
	for ; i < in.Len(); i++ {
		e, ok := node.children[in.At(i)]
		if !ok {
			break
		}
		if e.output != out.At(i) {
			return conflictError(in, i)
		}
		node = e.target
	}

	t.alphabet.addWord(in)
	for ; i < in.Len(); i++ {
		next := newTreeNode[I, O]()
		node.children[in.At(i)] = &treeEdge[I, O]{output: out.At(i), target: next}
		node = next
		t.size++
	}

	return nil
}

type treeFrame[I, O comparable] struct {
	node *treeNode[I, O]
	in   word.Word[I]
	out  word.Word[O]
}

func (t *TreeModel[I, O]) Walk(fn func(in word.Word[I], out word.Word[O]) bool) {
	if len(t.root.children) == 0 {
		return
	}

	syms := t.alphabet.syms
	stack := arraystack.New()
	stack.Push(treeFrame[I, O]{node: t.root})
	for !stack.Empty() {
		v, _ := stack.Pop()
		f := v.(treeFrame[I, O])
		if len(f.node.children) == 0 {
			if !fn(f.in, f.out) {
				return
			}
			continue
		}

		// push in reverse so that children are visited in alphabet order
		for j := len(syms) - 1; j >= 0; j-- {
			e, ok := f.node.children[syms[j]]
			if !ok {
				continue
			}
			stack.Push(treeFrame[I, O]{
				node: e.target,
				in:   f.in.Append(syms[j]),
				out:  f.out.Append(e.output),
			})
		}
	}
}

func (t *TreeModel[I, O]) Snapshot() *Snapshot[I, O] {
	snap := newSnapshot[I, O](FormatTree, t.alphabet.list())

	ids := map[*treeNode[I, O]]int{t.root: 0}
	queue := linkedlistqueue.New()
	queue.Enqueue(t.root)
	for !queue.Empty() {
		v, _ := queue.Dequeue()
		node := v.(*treeNode[I, O])
		for _, sym := range t.alphabet.syms {
			e, ok := node.children[sym]
			if !ok {
				continue
			}
			ids[e.target] = len(ids)
			snap.Edges = append(snap.Edges, Edge[I, O]{
				From:   ids[node],
				Input:  sym,
				Output: e.output,
				To:     ids[e.target],
			})
			queue.Enqueue(e.target)
		}
	}

	return snap
}
