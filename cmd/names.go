package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/naming"
)

func newNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Inspect layer ids and caption breaks for display names",
	}

	cmd.AddCommand(newNamesSlugCmd())
	cmd.AddCommand(newNamesBreakCmd())
	return cmd
}

func newNamesSlugCmd() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:     "slug NAME",
		Short:   "Print the stable layer id for a display name",
		Example: `  boardkit names slug "Kovács Éva Anna" --id 12`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entryID *int64
			if cmd.Flags().Changed("id") {
				entryID = &id
			}
			fmt.Fprintln(cmd.OutOrStdout(), naming.StableID(args[0], entryID))
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "Entry id appended to the slug")
	return cmd
}

func newNamesBreakCmd() *cobra.Command {
	var breakAfter int

	cmd := &cobra.Command{
		Use:     "break NAME",
		Short:   "Show how a name is split over two caption lines",
		Example: `  boardkit names break "Dr. Nagy-Szabó Éva Mária"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			broken := naming.BreakName(args[0], breakAfter)
			fmt.Fprintln(cmd.OutOrStdout(), strings.ReplaceAll(broken, naming.LineSeparator, "\n"))
			return nil
		},
	}

	cmd.Flags().IntVar(&breakAfter, "after", 1, "Real words kept on the first line")
	return cmd
}
