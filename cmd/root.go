package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/photostack/boardkit/internal/config"
)

// rootOptions carries the persistent flags and the configuration loaded
// before any subcommand runs.
type rootOptions struct {
	settingsPath string
	verbose      bool
	cfg          *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "boardkit",
		Short: "Class photo board automation for a desktop image editor",
		Long: `Boardkit drives a desktop image editor to build class photo boards.

It captures the geometry of a finished board into a reusable template,
replays templates onto new boards, prepares name captions and photos from
a class roster, and composes the automation scripts that run inside the editor.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(opts.verbose)

			cfg, err := config.Load(opts.settingsPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			slog.Debug("Configuration loaded", "settings", cfg.SettingsPath, "templates", cfg.TemplatesDir, "temp", cfg.TempDir)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "Path to the YAML settings file (default $BOARDKIT_SETTINGS or ./boardkit.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newTemplateCmd(opts))
	cmd.AddCommand(newLayoutCmd(opts))
	cmd.AddCommand(newRosterCmd(opts))
	cmd.AddCommand(newScriptCmd(opts))
	cmd.AddCommand(newAssetCmd(opts))
	cmd.AddCommand(newNamesCmd())
	cmd.AddCommand(newDoctorCmd(opts))

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose || strings.EqualFold(os.Getenv("BOARDKIT_LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
