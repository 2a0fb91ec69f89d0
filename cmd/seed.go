package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/statesynth/mealycache/pkg/cache"
	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/oracle"
	"github.com/statesynth/mealycache/pkg/query"
	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/word"
)

const (
	tracesFlag = "traces"
	formatFlag = "format"
)

// Trace is one recorded run of the system under test.
type Trace struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// TraceFile is the document read by the seed command.
type TraceFile struct {
	Alphabet []string `json:"alphabet,omitempty"`
	Traces   []Trace  `json:"traces"`
}

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Build a snapshot from recorded traces",
		Long: `The seed command replays recorded input/output traces through a cache and stores the
resulting model as a snapshot. Traces that disagree on a shared prefix are logged and the
model keeps the answer it stored first.`,
		RunE:   runSeed,
		Args:   cobra.NoArgs,
		PreRun: bindFlags(tracesFlag, nameFlag, formatFlag, sinkFlag),
	}

	flags := cmd.Flags()

	addSharedFlags(flags)
	flags.String(tracesFlag, "", "(required) a YAML file with the recorded traces")
	flags.String(nameFlag, "", "(required) the name to store the snapshot under")
	flags.String(formatFlag, incremental.FormatTree, "the model format: 'tree' or 'table'")
	flags.StringToString(sinkFlag, nil, "error output symbols and the sink symbol that follows them (e.g. 'err=err')")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	name := viper.GetString(nameFlag)
	if name == "" {
		return fmt.Errorf("missing snapshot name")
	}

	traces, err := readTraces(viper.GetString(tracesFlag))
	if err != nil {
		return err
	}

	model, err := incremental.NewModel[string, string](viper.GetString(formatFlag))
	if err != nil {
		return err
	}

	l, err := newLogger()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, l)
	if err != nil {
		return err
	}
	defer store.Close()

	c := cache.New(replay(traces),
		cache.WithModel(model),
		cache.WithSinkFilter[string, string](sinkFilter(l)),
		cache.WithLogger[string, string](l),
	)
	for _, sym := range traces.Alphabet {
		c.AddAlphabetSymbol(sym)
	}

	queries := make([]*query.Query[string, string], 0, len(traces.Traces))
	for _, tr := range traces.Traces {
		queries = append(queries, query.New[string, string](word.FromSlice(tr.Input)))
	}
	if err := c.ProcessQueries(ctx, queries); err != nil {
		return err
	}

	rec, err := storage.Save(ctx, store, name, c.Suspend().Snapshot())
	if err != nil {
		return err
	}

	stats := c.Stats()
	l.Info("snapshot stored",
		zap.String("name", name),
		zap.String("id", rec.ID),
		zap.Int("traces", len(traces.Traces)),
		zap.Uint64("delegated", stats.Delegated),
	)

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s states=%d\n", name, rec.ID, c.Model().Size())
	return err
}

func readTraces(path string) (*TraceFile, error) {
	if path == "" {
		return nil, fmt.Errorf("missing traces file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read traces: %w", err)
	}

	var traces TraceFile
	if err := yaml.UnmarshalStrict(data, &traces); err != nil {
		return nil, fmt.Errorf("parse traces %s: %w", path, err)
	}

	for i, tr := range traces.Traces {
		if len(tr.Input) != len(tr.Output) {
			return nil, fmt.Errorf("trace %d: %d inputs but %d outputs", i, len(tr.Input), len(tr.Output))
		}
	}

	return &traces, nil
}

// replay answers a query from the first trace whose input starts with the query's input.
func replay(traces *TraceFile) oracle.MembershipOracle[string, string] {
	return oracle.Func[string, string](func(_ context.Context, queries []*query.Query[string, string]) error {
		for _, q := range queries {
			in := q.Input()
			answered := false
			for _, tr := range traces.Traces {
				if !in.IsPrefixOf(word.FromSlice(tr.Input)) {
					continue
				}
				if err := q.Answer(word.FromSlice(tr.Output).Prefix(in.Len())); err != nil {
					return err
				}
				answered = true
				break
			}
			if !answered {
				return fmt.Errorf("no trace covers %s", in)
			}
		}
		return nil
	})
}
