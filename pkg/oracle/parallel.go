package oracle

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/statesynth/mealycache/pkg/query"
	"github.com/statesynth/mealycache/pkg/word"
)

const defaultMaxGoroutines = 4

// SUL runs a single input word against the system under test and returns its output word.
type SUL[I, O comparable] func(ctx context.Context, input word.Word[I]) (word.Word[O], error)

// ParallelOracle answers a batch by running its queries against a SUL on a bounded
// number of goroutines.
type ParallelOracle[I, O comparable] struct {
	sul           SUL[I, O]
	maxGoroutines int
}

var _ MembershipOracle[string, string] = (*ParallelOracle[string, string])(nil)

type ParallelOracleOpt[I, O comparable] func(*ParallelOracle[I, O])

// WithMaxGoroutines bounds how many queries run against the SUL at the same time.
func WithMaxGoroutines[I, O comparable](n int) ParallelOracleOpt[I, O] {
	return func(p *ParallelOracle[I, O]) {
		p.maxGoroutines = n
	}
}

func NewParallelOracle[I, O comparable](sul SUL[I, O], opts ...ParallelOracleOpt[I, O]) *ParallelOracle[I, O] {
	p := &ParallelOracle[I, O]{
		sul:           sul,
		maxGoroutines: defaultMaxGoroutines,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.maxGoroutines < 1 {
		p.maxGoroutines = 1
	}

	return p
}

// ProcessQueries implements MembershipOracle. The first failing query cancels the
// remaining ones and its error is returned.
func (p *ParallelOracle[I, O]) ProcessQueries(ctx context.Context, queries []*query.Query[I, O]) error {
	if len(queries) == 0 {
		return nil
	}

	workers := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(p.maxGoroutines)

	for _, q := range queries {
		workers.Go(func(ctx context.Context) error {
			out, err := p.sul(ctx, q.Input())
			if err != nil {
				return fmt.Errorf("query %s: %w", q.Input(), err)
			}
			return q.Answer(out)
		})
	}

	return workers.Wait()
}
