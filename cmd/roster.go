package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/fragments"
	"github.com/photostack/boardkit/internal/bridge"
	"github.com/photostack/boardkit/internal/roster"
	"github.com/photostack/boardkit/internal/scripts"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Create name captions and photo layers from a class roster",
		Long: `A roster is a JSON or YAML list of entries with id, name, type and an
optional photo URL. Entries of type "teacher" go into the Teachers groups,
all others into the Students groups.

Without --run the prepared payload is printed; with --run it is handed to
the matching fragment inside the editor.`,
	}

	cmd.AddCommand(newRosterNamesCmd(opts))
	cmd.AddCommand(newRosterImagesCmd(opts))
	return cmd
}

// runFragment writes payload to a data file and runs fragment against doc.
func (o *rootOptions) runFragment(cmd *cobra.Command, fragment, doc string, payload any) error {
	runner := o.runner()
	dataPath, err := runner.WriteData("roster", payload)
	if err != nil {
		return err
	}
	script, err := o.composer().Compose(fragment, scripts.Overrides{DataFile: dataPath, TargetDocument: doc})
	if err != nil {
		removeQuietly(dataPath)
		return err
	}
	_, err = runner.Run(cmd.Context(), script, bridge.RunOptions{
		Streaming: true,
		Observer:  printLine(cmd.OutOrStdout()),
		DataFiles: []string{dataPath},
	})
	return err
}

func newRosterNamesCmd(opts *rootOptions) *cobra.Command {
	var doc string
	var breakAfter int
	var textAlign string
	var run bool

	cmd := &cobra.Command{
		Use:   "names ROSTER",
		Short: "Prepare name captions for every roster entry",
		Example: `  boardkit roster names class.yaml
  boardkit roster names class.yaml --run --doc 12a.psd --after 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persons, err := roster.Load(args[0])
			if err != nil {
				return err
			}
			names := opts.cfg.Settings.Names
			if !cmd.Flags().Changed("after") {
				breakAfter = names.NameBreakAfter
			}
			if textAlign == "" {
				textAlign = names.TextAlign
			}

			payload := roster.PrepareNames(persons, breakAfter, textAlign)
			if !run {
				return writeOutput(cmd.OutOrStdout(), "json", payload)
			}
			if err := opts.runFragment(cmd, fragments.AddNames, doc, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d students, %d teachers\n",
				okStyle.Render("Names sent"), payload.Stats.Students, payload.Stats.Teachers)
			return nil
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	cmd.Flags().IntVar(&breakAfter, "after", 1, "Real words kept on the first caption line (default from settings)")
	cmd.Flags().StringVar(&textAlign, "align", "", "Caption alignment: left, center or right (default from settings)")
	cmd.Flags().BoolVar(&run, "run", false, "Create the layers in the editor")
	return cmd
}

func newRosterImagesCmd(opts *rootOptions) *cobra.Command {
	var doc string
	var dpi float64
	var run bool

	cmd := &cobra.Command{
		Use:   "images ROSTER",
		Short: "Download roster photos and prepare photo layers",
		Long: `Downloads every entry's photo concurrently, cover-fitted to the configured
photo size at the document resolution. Entries without a photo, or whose
download fails, get an empty placeholder layer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persons, err := roster.Load(args[0])
			if err != nil {
				return err
			}
			images := opts.cfg.Settings.Images
			size := roster.ImageSize{WidthCm: images.WidthCm, HeightCm: images.HeightCm, DPI: images.DPI}
			if dpi > 0 {
				size.DPI = dpi
			}

			payload := roster.PrepareImages(cmd.Context(), opts.fetcher(), persons, size, opts.cfg.FetchLimit)
			if !run {
				return writeOutput(cmd.OutOrStdout(), "json", payload)
			}
			if err := opts.runFragment(cmd, fragments.PlacePhotos, doc, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d of %d with photo\n",
				okStyle.Render("Photos sent"), *payload.Stats.WithPhoto, payload.Stats.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&doc, "doc", "", "Name of the open document (default: active document)")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "Document resolution (default from settings)")
	cmd.Flags().BoolVar(&run, "run", false, "Create the layers in the editor")
	return cmd
}
