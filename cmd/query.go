package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/statesynth/mealycache/pkg/cache"
	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/oracle"
	"github.com/statesynth/mealycache/pkg/query"
	"github.com/statesynth/mealycache/pkg/storage"
)

const unknownAnswer = "?"

func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query WORD...",
		Short: "Answer membership queries from a stored snapshot",
		Long: `The query command answers each word from a stored snapshot without contacting the system
under test. Symbols of a word are separated by commas, an empty argument is the empty word.
Words the snapshot cannot answer are printed as '?'.`,
		RunE:   runQuery,
		Args:   cobra.MinimumNArgs(1),
		PreRun: bindFlags(nameFlag, sinkFlag),
	}

	flags := cmd.Flags()

	addSharedFlags(flags)
	flags.String(nameFlag, "", "(required) the name of the snapshot to answer from")
	flags.StringToString(sinkFlag, nil, "error output symbols and the sink symbol that follows them (e.g. 'err=err')")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := loadCache(ctx, viper.GetString(nameFlag))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		q := query.New[string, string](parseWord(arg))
		err := c.ProcessQueries(ctx, []*query.Query[string, string]{q})
		switch {
		case errors.Is(err, oracle.ErrUnavailable):
			_, err = fmt.Fprintf(out, "%s -> %s\n", arg, unknownAnswer)
		case err != nil:
			return err
		default:
			answer, _ := q.Output()
			_, err = fmt.Fprintf(out, "%s -> %s\n", arg, formatWord(answer))
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// loadCache resumes a cache from the named snapshot. The cache cannot reach a system under
// test, so it only answers what the snapshot knows.
func loadCache(ctx context.Context, name string) (*cache.Oracle[string, string], error) {
	if name == "" {
		return nil, fmt.Errorf("missing snapshot name")
	}

	l, err := newLogger()
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, l)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := storage.Load[string, string](ctx, store, name)
	if err != nil {
		return nil, err
	}

	model, err := incremental.NewModel[string, string](snap.Format)
	if err != nil {
		return nil, err
	}

	c := cache.New(oracle.Unavailable[string, string](),
		cache.WithModel(model),
		cache.WithSinkFilter[string, string](sinkFilter(l)),
		cache.WithLogger[string, string](l),
	)
	if err := c.Resume(cache.NewState(snap)); err != nil {
		return nil, err
	}

	return c, nil
}
