package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/fragments"
	"github.com/photostack/boardkit/internal/bridge"
	"github.com/photostack/boardkit/internal/scripts"
)

func newScriptCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Compose, deploy and run automation fragments",
		Long: `Fragments are the scripts that run inside the editor. A fragment is read
from the working fragment directory when present there, otherwise from the
copy bundled with boardkit; its includes are inlined and its CONFIG block
receives the overrides given on the command line.`,
	}

	cmd.AddCommand(newScriptComposeCmd(opts))
	cmd.AddCommand(newScriptRunCmd(opts))
	cmd.AddCommand(newScriptDeployCmd(opts))

	return cmd
}

// overrideFlags are the CONFIG overrides shared by compose and run.
type overrideFlags struct {
	dataFile string
	doc      string
	board    string
	extra    []string
}

func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataFile, "data", "", "Data file path passed as CONFIG.DATA_FILE_PATH")
	cmd.Flags().StringVar(&f.doc, "doc", "", "Target document passed as CONFIG.TARGET_DOC_NAME")
	cmd.Flags().StringVar(&f.board, "board", "", "Board file passed as CONFIG.PSD_FILE_PATH")
	cmd.Flags().StringArrayVar(&f.extra, "set", nil, "Extra CONFIG override KEY=VALUE (repeatable)")
}

func (f *overrideFlags) overrides() (scripts.Overrides, error) {
	o := scripts.Overrides{DataFile: f.dataFile, TargetDocument: f.doc, BoardFile: f.board}
	for _, kv := range f.extra {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return o, fmt.Errorf("invalid --set %q, expected KEY=VALUE", kv)
		}
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[key] = value
	}
	return o, nil
}

func newScriptComposeCmd(opts *rootOptions) *cobra.Command {
	var flags overrideFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "compose FRAGMENT",
		Short: "Print a fragment with includes inlined and overrides applied",
		Example: `  boardkit script compose ` + fragments.ReadLayout + `
  boardkit script compose ` + fragments.AddNames + ` --data /tmp/names.json --doc 12a.psd -o add-names.jsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.overrides()
			if err != nil {
				return err
			}
			script, err := opts.composer().Compose(args[0], o)
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), script)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(script), 0644); err != nil {
				return fmt.Errorf("failed to write script: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the script to a file instead of stdout")
	return cmd
}

func newScriptRunCmd(opts *rootOptions) *cobra.Command {
	var flags overrideFlags
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run FRAGMENT",
		Short: "Compose a fragment and run it in the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.overrides()
			if err != nil {
				return err
			}
			script, err := opts.composer().Compose(args[0], o)
			if err != nil {
				return err
			}

			runOpts := bridge.RunOptions{}
			if !quiet {
				runOpts.Streaming = true
				runOpts.Observer = printLine(cmd.OutOrStdout())
			}
			res, err := opts.runner().Run(cmd.Context(), script, runOpts)
			if err != nil {
				return err
			}
			if quiet {
				fmt.Fprint(cmd.OutOrStdout(), res.Output)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s in %s\n", okStyle.Render("Finished"), res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print the output once the run ends instead of streaming it")
	return cmd
}

func newScriptDeployCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Copy new or updated bundled fragments into the working fragment directory",
		Long: `Copies every bundled fragment that is missing from the working fragment
directory, or older there than the bundled copy. Edited working copies are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cfg.WorkingFragments()
			if dir == "" {
				return errors.New("no working fragment directory: set BOARDKIT_FRAGMENTS_DIR or BOARDKIT_WORK_DIR")
			}
			copied, err := scripts.Deploy(bundled(), dir)
			if err != nil {
				return err
			}
			if len(copied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Fragments are up to date"))
				return nil
			}
			for _, p := range copied {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("deployed"), p)
			}
			return nil
		},
	}
	return cmd
}
