// Package scripts builds runnable automation scripts from fragment files.
//
// A fragment is resolved from the operator's working copy first and from the
// bundled set otherwise. Include directives are inlined and per-run values
// are appended after the fragment's CONFIG block.
package scripts

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/photostack/boardkit/internal/errs"
)

const (
	// MaxIncludeDepth bounds nested include expansion.
	MaxIncludeDepth = 10

	configMarker   = "var CONFIG"
	configEnd      = "};"
	maxNameLength  = 200
	includeMissing = "// ERROR: include not available: "
)

var (
	includePattern = regexp.MustCompile(`//\s*#include\s+"([^"]+)"`)
	configKey      = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
)

// Overrides are per-run values injected into a fragment's CONFIG block.
type Overrides struct {
	DataFile       string
	TargetDocument string
	BoardFile      string
	// Extra holds additional CONFIG.<KEY> string assignments.
	Extra map[string]string
}

func (o Overrides) empty() bool {
	return o.DataFile == "" && o.TargetDocument == "" && o.BoardFile == "" && len(o.Extra) == 0
}

// Composer resolves and assembles fragments.
type Composer struct {
	// Working is the operator's editable copy. May be nil.
	Working fs.FS
	// Bundled is the fragment set shipped with the binary.
	Bundled fs.FS
	// DeployDir, when set, receives a sync of Bundled before each composition.
	DeployDir string
}

// NewComposer creates a composer over bundled fragments. When workDir is
// non-empty it becomes both the working copy and the deploy target.
func NewComposer(bundled fs.FS, workDir string) *Composer {
	c := &Composer{Bundled: bundled}
	if workDir != "" {
		c.Working = os.DirFS(workDir)
		c.DeployDir = workDir
	}
	return c
}

// Resolve returns the filesystem holding the named fragment and its cleaned
// path within it. The working copy wins whenever it has the file.
func (c *Composer) Resolve(name string) (fs.FS, string, error) {
	const op = "scripts.Resolve"

	clean, err := checkName(name)
	if err != nil {
		return nil, "", err
	}
	for _, fsys := range []fs.FS{c.Working, c.Bundled} {
		if fsys == nil {
			continue
		}
		if info, err := fs.Stat(fsys, clean); err == nil && !info.IsDir() {
			return fsys, clean, nil
		}
	}
	return nil, "", errs.E(errs.NotFound, op, fmt.Sprintf("fragment not found: %s", name), nil)
}

// Compose builds the script text for the named fragment.
func (c *Composer) Compose(name string, opts Overrides) (string, error) {
	const op = "scripts.Compose"

	if c.DeployDir != "" && c.Bundled != nil {
		if _, err := Deploy(c.Bundled, c.DeployDir); err != nil {
			slog.Warn("Fragment deploy failed", "dir", c.DeployDir, "error", err)
		}
	}

	fsys, clean, err := c.Resolve(name)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(fsys, clean)
	if err != nil {
		return "", errs.E(errs.NotFound, op, fmt.Sprintf("failed to read fragment %s", name), err)
	}

	content := ExpandIncludes(fsys, string(data), path.Dir(clean))
	if opts.empty() {
		return content, nil
	}
	return InjectConfig(content, opts), nil
}

// ExpandIncludes replaces every include directive in content with the
// expanded text of the referenced file, resolved relative to dir inside fsys.
// Missing files and paths escaping fsys become an inert marker comment.
func ExpandIncludes(fsys fs.FS, content, dir string) string {
	return expand(fsys, content, dir, 0)
}

func expand(fsys fs.FS, content, dir string, depth int) string {
	if depth >= MaxIncludeDepth {
		slog.Warn("Include depth limit reached", "max", MaxIncludeDepth)
		return content
	}
	return includePattern.ReplaceAllStringFunc(content, func(directive string) string {
		ref := includePattern.FindStringSubmatch(directive)[1]
		target := path.Join(dir, ref)
		if !fs.ValidPath(target) {
			slog.Warn("Include outside fragment root blocked", "include", ref)
			return includeMissing + ref
		}
		data, err := fs.ReadFile(fsys, target)
		if err != nil {
			slog.Warn("Include not found", "include", ref, "error", err)
			return includeMissing + ref
		}
		return expand(fsys, string(data), path.Dir(target), depth+1)
	})
}

// InjectConfig appends override assignments right after the first "};"
// that follows "var CONFIG". Content without a CONFIG block is returned as is.
func InjectConfig(content string, opts Overrides) string {
	lines := overrideLines(opts)
	if len(lines) == 0 {
		return content
	}

	start := strings.Index(content, configMarker)
	if start < 0 {
		slog.Warn("Fragment has no CONFIG block, overrides skipped")
		return content
	}
	end := strings.Index(content[start:], configEnd)
	if end < 0 {
		slog.Warn("CONFIG block is not terminated, overrides skipped")
		return content
	}
	at := start + end + len(configEnd)

	block := "\n" + strings.Join(lines, "\n") + "\n"
	return content[:at] + block + content[at:]
}

func overrideLines(opts Overrides) []string {
	var lines []string
	if opts.DataFile != "" {
		lines = append(lines, fmt.Sprintf(`CONFIG.DATA_FILE_PATH = "%s";`, JSXPath(opts.DataFile)))
	}
	if opts.TargetDocument != "" {
		lines = append(lines, fmt.Sprintf(`CONFIG.TARGET_DOC_NAME = "%s";`, JSXString(opts.TargetDocument)))
	}
	if opts.BoardFile != "" {
		lines = append(lines, fmt.Sprintf(`CONFIG.PSD_FILE_PATH = "%s";`, JSXPath(opts.BoardFile)))
	}

	keys := make([]string, 0, len(opts.Extra))
	for k := range opts.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !configKey.MatchString(k) {
			slog.Warn("Invalid config override key skipped", "key", k)
			continue
		}
		lines = append(lines, fmt.Sprintf(`CONFIG.%s = "%s";`, k, JSXString(opts.Extra[k])))
	}
	return lines
}

func checkName(name string) (string, error) {
	const op = "scripts.Resolve"
	if name == "" || len(name) > maxNameLength {
		return "", errs.E(errs.Invalid, op, "invalid fragment name", nil)
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return "", errs.E(errs.Invalid, op, fmt.Sprintf("invalid fragment path %q", name), nil)
	}
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if !fs.ValidPath(clean) {
		return "", errs.E(errs.Invalid, op, fmt.Sprintf("invalid fragment path %q", name), nil)
	}
	return clean, nil
}
