package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/word"
)

const wordsFlag = "words"

func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "inspect",
		Short:  "Describe a stored snapshot",
		Long:   "The inspect command prints the record metadata and the shape of the model stored in a snapshot.",
		RunE:   runInspect,
		Args:   cobra.NoArgs,
		PreRun: bindFlags(nameFlag, wordsFlag),
	}

	flags := cmd.Flags()

	addSharedFlags(flags)
	flags.String(nameFlag, "", "(required) the name of the snapshot to inspect")
	flags.Bool(wordsFlag, false, "also print every maximal cached word with its output")

	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	name := viper.GetString(nameFlag)
	if name == "" {
		return fmt.Errorf("missing snapshot name")
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

	rec, err := store.ReadSnapshot(ctx, name)
	if err != nil {
		return fmt.Errorf("read snapshot %q: %w", name, err)
	}

	snap, err := storage.Decode[string, string](rec)
	if err != nil {
		return err
	}

	model, err := incremental.Restore(snap)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "name\t%s\n", rec.Name)
	fmt.Fprintf(w, "id\t%s\n", rec.ID)
	fmt.Fprintf(w, "created\t%s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "checksum\t%016x\n", rec.Checksum)
	fmt.Fprintf(w, "format\t%s\n", snap.Format)
	fmt.Fprintf(w, "version\t%d\n", snap.Version)
	fmt.Fprintf(w, "states\t%d\n", model.Size())
	fmt.Fprintf(w, "edges\t%d\n", len(snap.Edges))
	fmt.Fprintf(w, "alphabet\t%s\n", strings.Join(model.Alphabet(), ","))

	if viper.GetBool(wordsFlag) {
		model.Walk(func(in word.Word[string], out word.Word[string]) bool {
			fmt.Fprintf(w, "%s\t%s\n", formatWord(in), formatWord(out))
			return true
		})
	}

	return w.Flush()
}
