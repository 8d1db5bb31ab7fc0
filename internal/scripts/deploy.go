package scripts

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fragmentExt = ".jsx"

// Stamp wraps fsys so that entries reporting a zero modification time,
// such as those of an embed.FS, report mod instead. PlanSync over the
// result then compares the release time of the bundled fragments against
// the working copy.
func Stamp(fsys fs.FS, mod time.Time) fs.FS {
	return stampedFS{fsys: fsys, mod: mod}
}

type stampedFS struct {
	fsys fs.FS
	mod  time.Time
}

func (s stampedFS) Open(name string) (fs.File, error) {
	return s.fsys.Open(name)
}

func (s stampedFS) Stat(name string) (fs.FileInfo, error) {
	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return nil, err
	}
	return s.stamp(info), nil
}

func (s stampedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(s.fsys, name)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = stampedEntry{DirEntry: e, fs: s}
	}
	return out, nil
}

func (s stampedFS) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, name)
}

func (s stampedFS) stamp(info fs.FileInfo) fs.FileInfo {
	if !info.ModTime().IsZero() {
		return info
	}
	return stampedInfo{FileInfo: info, mod: s.mod}
}

type stampedEntry struct {
	fs.DirEntry
	fs stampedFS
}

func (e stampedEntry) Info() (fs.FileInfo, error) {
	info, err := e.DirEntry.Info()
	if err != nil {
		return nil, err
	}
	return e.fs.stamp(info), nil
}

type stampedInfo struct {
	fs.FileInfo
	mod time.Time
}

func (i stampedInfo) ModTime() time.Time { return i.mod }

// PlanSync lists the fragment files of src that should be copied into dst:
// those missing from dst and those whose source modification time is
// strictly newer than the destination's. Paths are slash separated and
// relative to both roots, in walk order.
func PlanSync(src, dst fs.FS) ([]string, error) {
	var plan []string
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), fragmentExt) {
			return nil
		}

		dstInfo, err := fs.Stat(dst, p)
		if err != nil {
			plan = append(plan, p)
			return nil
		}
		srcInfo, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if srcInfo.ModTime().After(dstInfo.ModTime()) {
			plan = append(plan, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk fragments: %w", err)
	}
	return plan, nil
}

// Deploy copies the files PlanSync selects from src into dstDir and returns them.
func Deploy(src fs.FS, dstDir string) ([]string, error) {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create deploy directory: %w", err)
	}
	plan, err := PlanSync(src, os.DirFS(dstDir))
	if err != nil {
		return nil, err
	}

	copied := make([]string, 0, len(plan))
	for _, p := range plan {
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", p, err)
		}
		dest := filepath.Join(dstDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return copied, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", p, err)
		}
		slog.Info("Fragment deployed", "file", p)
		copied = append(copied, p)
	}
	return copied, nil
}
