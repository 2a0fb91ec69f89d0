//go:generate mockgen -source oracle.go -destination ./mocks/mock_oracle.go -package mocks MembershipOracle

// Package oracle defines the contracts between learning algorithms, caches and the system
// under test, together with a few reusable oracle implementations.
package oracle

import (
	"context"
	"errors"

	"github.com/statesynth/mealycache/pkg/query"
)

// ErrUnavailable is returned by oracles that cannot reach a system under test.
var ErrUnavailable = errors.New("system under test unavailable")

// MembershipOracle answers batches of membership queries. A nil error means every query in
// the batch has been answered. Implementations may answer in any order and may work on
// several queries concurrently, but ProcessQueries returns only once the batch is done.
type MembershipOracle[I, O comparable] interface {
	ProcessQueries(ctx context.Context, queries []*query.Query[I, O]) error
}

// Func adapts a plain function to a MembershipOracle.
type Func[I, O comparable] func(ctx context.Context, queries []*query.Query[I, O]) error

var _ MembershipOracle[string, string] = Func[string, string](nil)

func (f Func[I, O]) ProcessQueries(ctx context.Context, queries []*query.Query[I, O]) error {
	return f(ctx, queries)
}

// Unavailable returns an oracle that rejects every non-empty batch with ErrUnavailable.
// Put behind a cache, it turns the cache into a read-only replay of what it already knows.
func Unavailable[I, O comparable]() MembershipOracle[I, O] {
	return Func[I, O](func(_ context.Context, queries []*query.Query[I, O]) error {
		if len(queries) == 0 {
			return nil
		}
		return ErrUnavailable
	})
}
