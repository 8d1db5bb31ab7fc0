package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/models"
	"github.com/photostack/boardkit/internal/snapshots"
)

func newLayoutCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Read, archive and export document layouts",
	}

	cmd.AddCommand(newLayoutReadCmd(opts))
	cmd.AddCommand(newLayoutSnapshotCmd(opts))
	cmd.AddCommand(newLayoutExportCmd(opts))
	return cmd
}

func newLayoutReadCmd(opts *rootOptions) *cobra.Command {
	var doc string
	var output string

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print the layers of an open document",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.engine(nil).ReadLayout(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, snap)
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")
	return cmd
}

func newLayoutSnapshotCmd(opts *rootOptions) *cobra.Command {
	var board string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Archive document layouts next to the board file",
		Long: `Snapshots are stored as JSON files in a <board>.layouts directory beside
the board file, one file per snapshot, named by time and snapshot name.`,
	}
	cmd.PersistentFlags().StringVar(&board, "board", "", "Path of the board file (required)")
	_ = cmd.MarkPersistentFlagRequired("board")

	var doc string
	save := &cobra.Command{
		Use:   "save NAME",
		Short: "Read the open document and archive its layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.engine(nil).ReadLayout(cmd.Context(), doc)
			if err != nil {
				return err
			}
			file, err := snapshots.New(board).Save(args[0], snap)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Saved"), file)
			return nil
		},
	}
	save.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := snapshots.New(board).List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No snapshots"))
				return nil
			}
			rows := make([][]string, 0, len(infos))
			for _, i := range infos {
				rows = append(rows, []string{i.File, i.Name, strconv.Itoa(i.Layers), i.CreatedAt.Local().Format("2006-01-02 15:04:05")})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"FILE", "NAME", "LAYERS", "CREATED"}, rows))
			return nil
		},
	}

	var output string
	show := &cobra.Command{
		Use:   "show FILE",
		Short: "Print an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := snapshots.New(board).Load(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, entry)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")

	del := &cobra.Command{
		Use:   "delete FILE",
		Short: "Delete an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshots.New(board).Delete(args[0])
		},
	}

	cmd.AddCommand(save, list, show, del)
	return cmd
}

func newLayoutExportCmd(opts *rootOptions) *cobra.Command {
	var doc string
	var board string
	var snapshotFile string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export layout layers to a Parquet file",
		Long: `Writes one row per layer, tagged with its role and cohort, for offline
analysis. The layers come from an archived snapshot when --snapshot is given,
otherwise from the open document.`,
		Example: `  # Export the active document
  boardkit layout export --out layers.parquet

  # Export an archived snapshot
  boardkit layout export --board /boards/12a.psd --snapshot 20260504-103001-before-swap.json --out before.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap *models.Snapshot
			if snapshotFile != "" {
				if board == "" {
					return fmt.Errorf("--board is required with --snapshot")
				}
				entry, err := snapshots.New(board).Load(snapshotFile)
				if err != nil {
					return err
				}
				snap = &entry.Snapshot
			} else {
				var err error
				snap, err = opts.engine(nil).ReadLayout(cmd.Context(), doc)
				if err != nil {
					return err
				}
			}
			return snapshots.ExportParquet(outPath, snap)
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	cmd.Flags().StringVar(&board, "board", "", "Path of the board file whose archive holds the snapshot")
	cmd.Flags().StringVar(&snapshotFile, "snapshot", "", "Archived snapshot file to export")
	cmd.Flags().StringVarP(&outPath, "out", "o", "layers.parquet", "Output Parquet path")
	return cmd
}
