package cache

import (
	"github.com/statesynth/mealycache/pkg/query"
	"github.com/statesynth/mealycache/pkg/word"
)

// masterQuery stands for one run of the system under test that answers a whole group of
// queries: every member's input is a prefix of the master's input, so every member's answer
// is a prefix of the master's answer.
type masterQuery[I, O comparable] struct {
	input word.Word[I]

	// resolved is set when the answer was derived from the model, and query is nil then.
	resolved bool
	answer   word.Word[O]

	// query is forwarded to the delegate when the model cannot answer the input.
	query *query.Query[I, O]

	members []*query.Query[I, O]
}

func resolvedMaster[I, O comparable](input word.Word[I], answer word.Word[O]) *masterQuery[I, O] {
	return &masterQuery[I, O]{input: input, resolved: true, answer: answer}
}

func pendingMaster[I, O comparable](input word.Word[I]) *masterQuery[I, O] {
	return &masterQuery[I, O]{input: input, query: query.New[I, O](input)}
}

func (m *masterQuery[I, O]) addMember(q *query.Query[I, O]) {
	m.members = append(m.members, q)
}
