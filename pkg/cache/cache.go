// Package cache implements a membership oracle that answers Mealy queries from an
// incremental model of everything it has seen before, and forwards only what it cannot
// answer to a delegate oracle backed by the real system under test.
//
// Queries whose inputs form a prefix chain are grouped so that the delegate is asked at
// most once per chain. An optional sink filter lets the cache answer any extension of a word
// that already ended in an error symbol.
//
// An Oracle is not safe for concurrent use.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/statesynth/mealycache/internal/build"
	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/logger"
	"github.com/statesynth/mealycache/pkg/oracle"
	"github.com/statesynth/mealycache/pkg/query"
	"github.com/statesynth/mealycache/pkg/sink"
	"github.com/statesynth/mealycache/pkg/word"
)

var tracer = otel.Tracer("pkg/cache")

var (
	queryCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "query_total",
		Help:      "The total number of membership queries received by the cache.",
	})

	cacheHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "query_cache_hit_total",
		Help:      "The total number of membership queries answered without the system under test.",
	})

	delegatedMasterCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "master_query_delegated_total",
		Help:      "The total number of grouped queries forwarded to the system under test.",
	})

	sinkResolvedMasterCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "master_query_sink_resolved_total",
		Help:      "The total number of grouped queries completed with a sink symbol instead of a real query.",
	})
)

var (
	// ErrUnanswered is returned when the delegate reports success but left a query unanswered.
	ErrUnanswered = errors.New("delegate left query unanswered")

	ErrNilState = errors.New("nil cache state")
)

// Stats counts what an Oracle has done since it was created.
type Stats struct {
	Queries      uint64
	CacheHits    uint64
	Delegated    uint64
	SinkResolved uint64
}

// Oracle is a caching membership oracle for Mealy machines.
type Oracle[I, O comparable] struct {
	delegate oracle.MembershipOracle[I, O]
	model    incremental.Model[I, O]
	filter   *sink.Filter[O]
	symCmp   func(I, I) int
	strict   bool
	logger   logger.Logger
	stats    Stats
}

var _ oracle.MembershipOracle[string, string] = (*Oracle[string, string])(nil)

// Option changes the behavior of an Oracle.
type Option[I, O comparable] func(*Oracle[I, O])

// WithModel sets the model the cache starts from. The default is an empty TreeModel.
func WithModel[I, O comparable](m incremental.Model[I, O]) Option[I, O] {
	return func(o *Oracle[I, O]) {
		o.model = m
	}
}

// WithSinkFilter enables prefix-closure filtering with the given error-to-sink mapping.
func WithSinkFilter[I, O comparable](f *sink.Filter[O]) Option[I, O] {
	return func(o *Oracle[I, O]) {
		o.filter = f
	}
}

// WithSymbolComparator replaces the discovery order used to group queries with a fixed
// order on input symbols.
func WithSymbolComparator[I, O comparable](cmp func(I, I) int) Option[I, O] {
	return func(o *Oracle[I, O]) {
		o.symCmp = cmp
	}
}

// WithStrictConsistency makes ProcessQueries fail when an answer contradicts the model,
// instead of logging a warning and keeping the stored outputs.
func WithStrictConsistency[I, O comparable]() Option[I, O] {
	return func(o *Oracle[I, O]) {
		o.strict = true
	}
}

func WithLogger[I, O comparable](l logger.Logger) Option[I, O] {
	return func(o *Oracle[I, O]) {
		o.logger = l
	}
}

// New constructs a cache in front of delegate. Queries the cache cannot answer are
// forwarded to delegate and its answers are added to the model.
func New[I, O comparable](delegate oracle.MembershipOracle[I, O], opts ...Option[I, O]) *Oracle[I, O] {
	o := &Oracle[I, O]{
		delegate: delegate,
		logger:   logger.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.model == nil {
		o.model = incremental.NewTreeModel[I, O]()
	}

	if o.symCmp == nil {
		o.symCmp = newDiscoveryOrder[I]().compare
	}

	return o
}

// NewTreeCache returns a cache backed by a TreeModel that already knows the given inputs.
func NewTreeCache[I, O comparable](alphabet []I, delegate oracle.MembershipOracle[I, O], opts ...Option[I, O]) *Oracle[I, O] {
	return newWithModel(incremental.NewTreeModel[I, O](), alphabet, delegate, opts)
}

// NewTableCache returns a cache backed by a TableModel that already knows the given inputs.
func NewTableCache[I, O comparable](alphabet []I, delegate oracle.MembershipOracle[I, O], opts ...Option[I, O]) *Oracle[I, O] {
	return newWithModel(incremental.NewTableModel[I, O](), alphabet, delegate, opts)
}

func newWithModel[I, O comparable](m incremental.Model[I, O], alphabet []I, delegate oracle.MembershipOracle[I, O], opts []Option[I, O]) *Oracle[I, O] {
	for _, sym := range alphabet {
		m.AddAlphabetSymbol(sym)
	}
	return New(delegate, append([]Option[I, O]{WithModel(m)}, opts...)...)
}

// ProcessQueries implements oracle.MembershipOracle.
//
// If the delegate fails, its error is returned, no query of the batch is answered and the
// model is left as it was.
func (o *Oracle[I, O]) ProcessQueries(ctx context.Context, queries []*query.Query[I, O]) error {
	if len(queries) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "cache.ProcessQueries", trace.WithAttributes(
		attribute.Int("batch_size", len(queries)),
	))
	defer span.End()

	queryCounter.Add(float64(len(queries)))
	o.stats.Queries += uint64(len(queries))

	sorted := slices.Clone(queries)
	slices.SortStableFunc(sorted, func(a, b *query.Query[I, O]) int {
		return -lexCompare(a.Input(), b.Input(), o.symCmp)
	})

	masters := o.group(sorted)

	var pending []*query.Query[I, O]
	for _, m := range masters {
		if !m.resolved {
			pending = append(pending, m.query)
		}
	}

	span.SetAttributes(
		attribute.Int("master_queries", len(masters)),
		attribute.Int("delegated", len(pending)),
	)

	if len(pending) > 0 {
		delegatedMasterCounter.Add(float64(len(pending)))
		o.stats.Delegated += uint64(len(pending))
		o.logger.DebugWithContext(ctx, "delegating queries", zap.Stringers("inputs", query.Inputs(pending)))

		if err := o.delegate.ProcessQueries(ctx, pending); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("delegate failed on %d queries: %w", len(pending), err)
		}

		for _, q := range pending {
			if !q.Answered() {
				err := fmt.Errorf("%w: %s", ErrUnanswered, q.Input())
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}
	}

	var errs []error
	for _, m := range masters {
		if err := o.postProcess(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// group walks the sorted queries and starts a new master query whenever a query is not a
// prefix of the current representative word.
func (o *Oracle[I, O]) group(sorted []*query.Query[I, O]) []*masterQuery[I, O] {
	ref := sorted[0].Input()
	master := o.newMaster(ref)
	masters := []*masterQuery[I, O]{master}
	master.addMember(sorted[0])

	for _, q := range sorted[1:] {
		curr := q.Input()
		if !curr.IsPrefixOf(ref) {
			master = o.newMaster(curr)
			masters = append(masters, master)
			ref = curr
		}
		master.addMember(q)
	}

	return masters
}

// newMaster answers input from the model if it can: either the model knows the whole word,
// or the known part ends with an error symbol and the rest is the sink.
func (o *Oracle[I, O]) newMaster(input word.Word[I]) *masterQuery[I, O] {
	known := o.model.Lookup(input)
	if known.Len() == input.Len() {
		return resolvedMaster(input, known)
	}

	if o.filter == nil {
		return pendingMaster[I, O](input)
	}

	answer, ok := o.filter.Complete(known, input.Len())
	if !ok {
		return pendingMaster[I, O](input)
	}

	sinkResolvedMasterCounter.Inc()
	o.stats.SinkResolved++
	return resolvedMaster(input, answer)
}

// postProcess stores what was learned for m and answers its members.
func (o *Oracle[I, O]) postProcess(ctx context.Context, m *masterQuery[I, O]) error {
	answer := m.answer
	if m.resolved {
		cacheHitCounter.Add(float64(len(m.members)))
		o.stats.CacheHits += uint64(len(m.members))
	} else {
		answer, _ = m.query.Output()
		if o.filter != nil {
			answer = o.filter.Collapse(answer)
		}
	}

	var insertErr error
	if !m.resolved {
		insertErr = o.insert(ctx, m.input, answer)
	}

	errs := []error{insertErr}
	for _, q := range m.members {
		if err := q.Answer(answer.Prefix(q.Input().Len())); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// insert adds a fresh answer to the model. With a sink filter nothing after the first error
// symbol is stored; it follows from the sink rule.
func (o *Oracle[I, O]) insert(ctx context.Context, input word.Word[I], answer word.Word[O]) error {
	if o.filter != nil {
		n := o.filter.Cut(answer)
		input, answer = input.Prefix(n), answer.Prefix(n)
	}

	err := o.model.Insert(input, answer)
	if err == nil {
		return nil
	}

	if o.strict {
		return fmt.Errorf("insert %s: %w", input, err)
	}

	o.logger.WarnWithContext(ctx, "answer contradicts cached output, keeping cached output",
		zap.Stringer("input", input),
		zap.Stringer("answer", answer),
		zap.Error(err),
	)
	return nil
}

// AddAlphabetSymbol registers a new input symbol with the model.
func (o *Oracle[I, O]) AddAlphabetSymbol(sym I) {
	o.model.AddAlphabetSymbol(sym)
}

// Model returns the live model. It must not be modified while the Oracle is in use.
func (o *Oracle[I, O]) Model() incremental.Model[I, O] {
	return o.model
}

func (o *Oracle[I, O]) Stats() Stats {
	return o.stats
}
