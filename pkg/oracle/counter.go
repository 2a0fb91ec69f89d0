package oracle

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statesynth/mealycache/internal/build"
	"github.com/statesynth/mealycache/pkg/query"
)

var (
	forwardedQueryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "oracle_query_total",
		Help:      "The total number of membership queries passed through a counting oracle.",
	}, []string{"oracle"})

	forwardedSymbolCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "oracle_symbol_total",
		Help:      "The total number of input symbols passed through a counting oracle.",
	}, []string{"oracle"})
)

// CounterOracle counts the queries and input symbols it forwards to its delegate. Placed
// between a cache and the system under test it measures what the cache could not answer.
type CounterOracle[I, O comparable] struct {
	delegate MembershipOracle[I, O]
	name     string
	queries  atomic.Int64
	symbols  atomic.Int64
}

var _ MembershipOracle[string, string] = (*CounterOracle[string, string])(nil)

func NewCounterOracle[I, O comparable](delegate MembershipOracle[I, O], name string) *CounterOracle[I, O] {
	return &CounterOracle[I, O]{
		delegate: delegate,
		name:     name,
	}
}

func (c *CounterOracle[I, O]) ProcessQueries(ctx context.Context, queries []*query.Query[I, O]) error {
	var symbols int
	for _, q := range queries {
		symbols += q.Input().Len()
	}

	c.queries.Add(int64(len(queries)))
	c.symbols.Add(int64(symbols))
	forwardedQueryCounter.WithLabelValues(c.name).Add(float64(len(queries)))
	forwardedSymbolCounter.WithLabelValues(c.name).Add(float64(symbols))

	return c.delegate.ProcessQueries(ctx, queries)
}

func (c *CounterOracle[I, O]) Name() string {
	return c.name
}

func (c *CounterOracle[I, O]) QueryCount() int64 {
	return c.queries.Load()
}

func (c *CounterOracle[I, O]) SymbolCount() int64 {
	return c.symbols.Load()
}
