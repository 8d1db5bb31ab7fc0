package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/layout"
	"github.com/photostack/boardkit/internal/models"
	"github.com/photostack/boardkit/internal/preview"
)

func newTemplateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Capture, manage and apply board templates",
		Long: `A template is the geometry of a finished board: one slot per photo with
its caption, plus the fixed layers around them. Templates are captured from
an open document and replayed onto boards with a different number of entries.`,
	}

	cmd.AddCommand(newTemplateCaptureCmd(opts))
	cmd.AddCommand(newTemplateListCmd(opts))
	cmd.AddCommand(newTemplateShowCmd(opts))
	cmd.AddCommand(newTemplateFindCmd(opts))
	cmd.AddCommand(newTemplateRenameCmd(opts))
	cmd.AddCommand(newTemplateDeleteCmd(opts))
	cmd.AddCommand(newTemplateApplyCmd(opts))
	cmd.AddCommand(newTemplatePreviewCmd(opts))

	return cmd
}

func newTemplateCaptureCmd(opts *rootOptions) *cobra.Command {
	var doc string

	cmd := &cobra.Command{
		Use:   "capture NAME",
		Short: "Capture the layout of an open document as a template",
		Example: `  # Capture the active document
  boardkit template capture "Class of 2026"

  # Capture a specific open document
  boardkit template capture "Spring 12A" --doc 12a.psd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			settings := opts.cfg.Settings
			tmpl, err := opts.engine(store).Capture(cmd.Context(), args[0], doc, settings.Board, settings.Names)
			if err != nil {
				return err
			}
			if err := store.Save(tmpl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d primary, %d secondary slots)\n",
				okStyle.Render("Saved"), tmpl.ID, len(tmpl.PrimarySlots), len(tmpl.SecondarySlots))
			return nil
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	return cmd
}

func summaryRows(list []models.TemplateSummary) [][]string {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{
			t.ID,
			t.Name,
			strconv.Itoa(t.PrimarySlotCount),
			strconv.Itoa(t.SecondarySlotCount),
			fmt.Sprintf("%.0fx%.0f cm", t.BoardWidthCm, t.BoardHeightCm),
			t.SourceDocName,
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

var summaryHeaders = []string{"ID", "NAME", "PRIMARY", "SECONDARY", "BOARD", "SOURCE", "CREATED"}

func newTemplateListCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved templates, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			list := store.List()
			if output != "" {
				return writeOutput(cmd.OutOrStdout(), output, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No templates saved yet"))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(summaryHeaders, summaryRows(list)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format (json or yaml; default: table)")
	return cmd
}

func newTemplateFindCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find QUERY",
		Short: "Find templates by approximate name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			matches := store.Find(args[0])
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No matching templates"))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(summaryHeaders, summaryRows(matches)))
			return nil
		},
	}
	return cmd
}

func newTemplateShowCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show TEMPLATE",
		Short: "Print a template by id or approximate name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			tmpl, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, tmpl)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")
	return cmd
}

func newTemplateRenameCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename TEMPLATE NEW_NAME",
		Short: "Rename a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			tmpl, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			return store.Rename(tmpl.ID, args[1])
		},
	}
	return cmd
}

func newTemplateDeleteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a template by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}
	return cmd
}

func newTemplateApplyCmd(opts *rootOptions) *cobra.Command {
	var doc string
	var board string
	var dryRun bool
	var previewPath string

	cmd := &cobra.Command{
		Use:   "apply TEMPLATE",
		Short: "Replay a template onto an open document",
		Long: `Reads the current layers of the document, computes where every photo and
caption goes according to the template, and moves them. Entries beyond the
template's slots continue the grid below the last row.`,
		Example: `  # Apply to the active document
  boardkit template apply "Class of 2026"

  # Compute the moves and draw them without touching the document
  boardkit template apply tmpl-1c2f... --dry-run --preview plan.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			tmpl, err := store.Resolve(args[0])
			if err != nil {
				return err
			}

			engine := opts.engine(store)
			engine.OnStage = func(s layout.Stage) {
				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("> "+string(s)))
			}
			res, err := engine.Apply(cmd.Context(), tmpl.ID, layout.ApplyOptions{
				TargetDocument: doc,
				BoardFile:      board,
				DryRun:         dryRun,
				Observer:       printLine(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case res.NoOp:
				fmt.Fprintln(out, mutedStyle.Render("Nothing to move"))
			case dryRun:
				fmt.Fprintf(out, "%s %d moves\n", mutedStyle.Render("Dry run:"), len(res.Plan.Moves))
			default:
				fmt.Fprintf(out, "%s %d moves\n", okStyle.Render("Applied"), len(res.Plan.Moves))
			}
			fmt.Fprintf(out, "placed %d, overflow %d, skipped %d, dpi scale %.3f\n",
				res.Plan.Placed, res.Plan.Overflow, res.Plan.Skipped, res.Plan.DPIScale)

			if previewPath != "" && res.Snapshot != nil {
				return writePreview(previewPath, preview.FromPlan(res.Snapshot, res.Plan.Moves))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	cmd.Flags().StringVar(&board, "board", "", "Path of the board file, passed to the script")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the moves without executing them")
	cmd.Flags().StringVar(&previewPath, "preview", "", "Also write a PDF preview of the result to this path")
	return cmd
}

func newTemplatePreviewCmd(opts *rootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "preview TEMPLATE",
		Short: "Draw a template's slots to a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			tmpl, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = tmpl.ID + ".pdf"
			}
			return writePreview(outPath, preview.FromTemplate(tmpl))
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output PDF path (default: <id>.pdf)")
	return cmd
}

func writePreview(path string, page preview.Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	if err := preview.Render(f, page); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write preview file: %w", err)
	}
	slog.Info("Preview written", "path", path, "boxes", len(page.Boxes))
	return nil
}
