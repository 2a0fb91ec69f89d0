package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "list",
		Short:  "List stored snapshot names",
		Long:   "The list command prints the name of every stored snapshot in ascending order.",
		RunE:   runList,
		Args:   cobra.NoArgs,
		PreRun: bindFlags(),
	}

	addSharedFlags(cmd.Flags())

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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

	names, err := store.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}

	return nil
}
