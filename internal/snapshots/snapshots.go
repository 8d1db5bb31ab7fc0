// Package snapshots archives layout snapshots next to the board file they
// were read from.
package snapshots

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/models"
	"github.com/photostack/boardkit/internal/naming"
)

const (
	dirSuffix       = ".layouts"
	timestampLayout = "20060102-150405"
	fileVersion     = 1
)

// Entry is one archived snapshot.
type Entry struct {
	Version   int             `json:"version"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	BoardFile string          `json:"boardFile"`
	Snapshot  models.Snapshot `json:"snapshot"`
}

// Info describes an archived snapshot without loading its layers.
type Info struct {
	File      string    `json:"file" yaml:"file"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	Layers    int       `json:"layers" yaml:"layers"`
}

// Archive stores snapshots for one board file.
type Archive struct {
	BoardFile string
	Now       func() time.Time
}

// New returns the archive of boardFile.
func New(boardFile string) *Archive {
	return &Archive{BoardFile: boardFile, Now: time.Now}
}

// Dir is <board without extension>.layouts beside the board file.
func (a *Archive) Dir() string {
	return strings.TrimSuffix(a.BoardFile, filepath.Ext(a.BoardFile)) + dirSuffix
}

// Save writes snap under a timestamped file name and returns the file name.
func (a *Archive) Save(name string, snap *models.Snapshot) (string, error) {
	name = strings.TrimSpace(name)
	slug := naming.StableID(name, nil)
	if slug == "" {
		return "", errs.E(errs.Invalid, "snapshots.Save", "snapshot name is required", nil)
	}
	if snap == nil {
		return "", errs.E(errs.Invalid, "snapshots.Save", "no snapshot to save", nil)
	}

	now := a.Now().UTC()
	entry := Entry{
		Version:   fileVersion,
		Type:      "snapshot",
		Name:      name,
		CreatedAt: now,
		BoardFile: a.BoardFile,
		Snapshot:  *snap,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(a.Dir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	file := now.Format(timestampLayout) + "-" + slug + ".json"
	if err := os.WriteFile(filepath.Join(a.Dir(), file), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	slog.Info("Snapshot saved", "file", file, "layers", len(snap.Layers))
	return file, nil
}

// List returns the archived snapshots, newest first. A board without an
// archive has none.
func (a *Archive) List() ([]Info, error) {
	entries, err := os.ReadDir(a.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var result []Info
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		entry, err := a.Load(e.Name())
		if err != nil {
			slog.Warn("Skipping unreadable snapshot", "file", e.Name(), "error", err)
			continue
		}
		result = append(result, Info{
			File:      e.Name(),
			Name:      entry.Name,
			CreatedAt: entry.CreatedAt,
			Layers:    len(entry.Snapshot.Layers),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].File > result[j].File
	})
	return result, nil
}

// Load reads one archived snapshot by file name.
func (a *Archive) Load(file string) (*Entry, error) {
	path, err := a.path(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.E(errs.NotFound, "snapshots.Load", fmt.Sprintf("snapshot not found: %s", file), nil)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errs.E(errs.MalformedPayload, "snapshots.Load", file, err)
	}
	return &entry, nil
}

// Delete removes one archived snapshot.
func (a *Archive) Delete(file string) error {
	path, err := a.path(file)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.E(errs.NotFound, "snapshots.Delete", fmt.Sprintf("snapshot not found: %s", file), nil)
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	slog.Info("Snapshot deleted", "file", file)
	return nil
}

func (a *Archive) path(file string) (string, error) {
	if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return "", errs.E(errs.Invalid, "snapshots", fmt.Sprintf("invalid snapshot file %q", file), nil)
	}
	return filepath.Join(a.Dir(), file), nil
}
