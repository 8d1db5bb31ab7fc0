package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/assets"
)

func newAssetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Download and resize photos",
	}

	cmd.AddCommand(newAssetFetchCmd(opts))
	return cmd
}

func newAssetFetchCmd(opts *rootOptions) *cobra.Command {
	var fileName string
	var width int
	var height int

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Download a photo into the photo cache and print its local path",
		Example: `  # Download as-is
  boardkit asset fetch https://photos.example/p/7.jpg --name kiss-peter---7.jpg

  # Download and cover-fit to 472x709 px
  boardkit asset fetch https://photos.example/p/7.jpg --name kiss-peter---7.jpg --width 472 --height 709`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileName == "" {
				fileName = assets.FileNameFor("photo", args[0])
			}
			var target *assets.Size
			if width > 0 && height > 0 {
				target = &assets.Size{Width: width, Height: height}
			} else if width > 0 || height > 0 {
				return fmt.Errorf("--width and --height must be given together")
			}

			path, err := opts.fetcher().Fetch(cmd.Context(), args[0], fileName, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&fileName, "name", "", "Cache file name (default: photo.<ext>)")
	cmd.Flags().IntVar(&width, "width", 0, "Target width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Target height in pixels")
	return cmd
}
