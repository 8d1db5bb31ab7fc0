package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/scripts"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the editor bridge and working directories are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := opts.cfg
			ok := true

			runner := opts.runner()
			if err := runner.Supported(); err != nil {
				report(out, statusFail, "bridge", err.Error())
				ok = false
			} else {
				report(out, statusOK, "bridge", runner.Command)
				running, err := runner.EditorRunning(cmd.Context())
				switch {
				case err != nil:
					report(out, statusFail, "editor", err.Error())
					ok = false
				case !running:
					report(out, statusFail, "editor", cfg.BundleID+" is not running")
					ok = false
				default:
					report(out, statusOK, "editor", cfg.BundleID)
				}
			}

			if dir := cfg.WorkingFragments(); dir != "" {
				plan, err := scripts.PlanSync(bundled(), os.DirFS(dir))
				switch {
				case err != nil:
					report(out, statusFail, "fragments", err.Error())
					ok = false
				case len(plan) > 0:
					report(out, statusWarn, "fragments", fmt.Sprintf("%d bundled fragments missing or outdated in %s (run: boardkit script deploy)", len(plan), dir))
				default:
					report(out, statusOK, "fragments", dir)
				}
			} else {
				report(out, statusOK, "fragments", "bundled")
			}

			if _, err := opts.store(); err != nil {
				report(out, statusFail, "templates", err.Error())
				ok = false
			} else {
				report(out, statusOK, "templates", cfg.TemplatesDir)
			}

			if cfg.SettingsPath != "" {
				report(out, statusOK, "settings", cfg.SettingsPath)
			} else {
				report(out, statusOK, "settings", "defaults")
			}

			if !ok {
				return fmt.Errorf("some checks failed")
			}
			return nil
		},
	}
	return cmd
}

type status int

const (
	statusOK status = iota
	statusWarn
	statusFail
)

func report(w io.Writer, s status, name, detail string) {
	var mark string
	switch s {
	case statusOK:
		mark = okStyle.Render("ok  ")
	case statusWarn:
		mark = warnStyle.Render("warn")
	default:
		mark = errStyle.Render("fail")
	}
	fmt.Fprintf(w, "%s %-10s %s\n", mark, name, mutedStyle.Render(detail))
}
