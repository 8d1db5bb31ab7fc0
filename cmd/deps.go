package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/photostack/boardkit/fragments"
	"github.com/photostack/boardkit/internal/assets"
	"github.com/photostack/boardkit/internal/bridge"
	"github.com/photostack/boardkit/internal/layout"
	"github.com/photostack/boardkit/internal/scripts"
	"github.com/photostack/boardkit/internal/storage"
)

// bundled is the embedded fragment set, dated by the executable so that a
// newer release replaces older deployed copies.
func bundled() fs.FS {
	return scripts.Stamp(fragments.FS, fragments.ModTime())
}

func (o *rootOptions) composer() *scripts.Composer {
	return scripts.NewComposer(bundled(), o.cfg.WorkingFragments())
}

func (o *rootOptions) runner() *bridge.Runner {
	return bridge.NewRunner(o.cfg.BundleID, o.cfg.HostApp, o.cfg.TempDir, o.cfg.ScriptTimeout)
}

func (o *rootOptions) store() (*storage.TemplateStore, error) {
	return storage.New(o.cfg.TemplatesDir)
}

func (o *rootOptions) fetcher() *assets.Fetcher {
	return assets.NewFetcher(o.cfg.PhotosDir(), o.cfg.AllowedHosts)
}

func (o *rootOptions) engine(store *storage.TemplateStore) *layout.Engine {
	e := &layout.Engine{
		Scripts: o.composer(),
		Runner:  o.runner(),
	}
	if store != nil {
		e.Templates = store
	}
	return e
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove temp file", "path", path, "error", err)
	}
}

// printLine echoes editor output to w, highlighting stderr lines.
func printLine(w io.Writer) func(bridge.Line) {
	return func(l bridge.Line) {
		if l.Stream == "stderr" {
			fmt.Fprintln(w, errStyle.Render(l.Text))
			return
		}
		fmt.Fprintln(w, l.Text)
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: json, yaml)", format)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// renderTable lays rows out in padded columns under a styled header.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Width(widths[i] + 2).Render(c)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	var b strings.Builder
	b.WriteString(line(headers, headerStyle))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(line(row, lipgloss.NewStyle()))
		b.WriteString("\n")
	}
	return b.String()
}
