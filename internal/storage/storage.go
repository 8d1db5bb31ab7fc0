// Package storage keeps saved templates, one JSON file per template.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/models"
)

const idPrefix = "tmpl-"

// TemplateStore is the process-wide template store keyed by id.
type TemplateStore struct {
	dir       string
	templates map[string]*models.Template
	mu        sync.RWMutex
}

// New opens the store in dir, loading every template file found there.
// Unreadable files are logged and skipped.
func New(dir string) (*TemplateStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}
	s := &TemplateStore{
		dir:       dir,
		templates: make(map[string]*models.Template),
	}

	files, err := filepath.Glob(filepath.Join(dir, idPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	for _, f := range files {
		t, err := readTemplate(f)
		if err != nil {
			slog.Warn("Skipping unreadable template", "file", f, "error", err)
			continue
		}
		s.templates[t.ID] = t
	}
	slog.Debug("Template store opened", "dir", dir, "templates", len(s.templates))
	return s, nil
}

// NewID returns a fresh template id.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// Save stores a copy of t, assigning an id when it has none. Saved
// templates are never overwritten; only Rename changes them.
func (s *TemplateStore) Save(t *models.Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.E(errs.Invalid, "storage.Save", "template name is required", nil)
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if !validID(t.ID) {
		return errs.E(errs.Invalid, "storage.Save", fmt.Sprintf("invalid template id %q", t.ID), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[t.ID]; exists {
		return errs.E(errs.Invalid, "storage.Save", fmt.Sprintf("template %s already exists", t.ID), nil)
	}
	if err := s.write(t); err != nil {
		return err
	}
	s.templates[t.ID] = t.Clone()
	slog.Info("Template saved", "id", t.ID, "name", t.Name)
	return nil
}

// Get returns a copy of the template with the given id.
func (s *TemplateStore) Get(id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, errs.E(errs.NotFound, "storage.Get", fmt.Sprintf("template not found: %s", id), nil)
	}
	return t.Clone(), nil
}

// List returns summaries of all templates, newest first.
func (s *TemplateStore) List() []models.TemplateSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.TemplateSummary, 0, len(s.templates))
	for _, t := range s.templates {
		result = append(result, t.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Rename changes a template's display name, its only mutable attribute.
func (s *TemplateStore) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.E(errs.Invalid, "storage.Rename", "template name is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return errs.E(errs.NotFound, "storage.Rename", fmt.Sprintf("template not found: %s", id), nil)
	}
	renamed := *t
	renamed.Name = name
	if err := s.write(&renamed); err != nil {
		return err
	}
	s.templates[id] = &renamed
	return nil
}

// Delete removes a template.
func (s *TemplateStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return errs.E(errs.NotFound, "storage.Delete", fmt.Sprintf("template not found: %s", id), nil)
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete template file: %w", err)
	}
	delete(s.templates, id)
	slog.Info("Template deleted", "id", id)
	return nil
}

// Find returns templates whose name approximately matches query, best match first.
func (s *TemplateStore) Find(query string) []models.TemplateSummary {
	all := s.List()
	if query == "" {
		return all
	}

	searchStrings := make([]string, 0, len(all))
	for _, t := range all {
		searchStrings = append(searchStrings, t.Name)
	}
	matches := fuzzy.Find(query, searchStrings)

	results := make([]models.TemplateSummary, 0, len(matches))
	for _, m := range matches {
		results = append(results, all[m.Index])
	}
	return results
}

// Resolve returns the template with the given id, or else the single best
// name match for ref.
func (s *TemplateStore) Resolve(ref string) (*models.Template, error) {
	if t, err := s.Get(ref); err == nil {
		return t, nil
	}
	matches := s.Find(ref)
	if len(matches) == 0 {
		return nil, errs.E(errs.NotFound, "storage.Resolve", fmt.Sprintf("no template matches %q", ref), nil)
	}
	return s.Get(matches[0].ID)
}

func (s *TemplateStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *TemplateStore) write(t *models.Template) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, t.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create template file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write template: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write template: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(t.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store template: %w", err)
	}
	return nil
}

func readTemplate(path string) (*models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &t, nil
}

func validID(id string) bool {
	if !strings.HasPrefix(id, idPrefix) || len(id) > 100 {
		return false
	}
	return !strings.ContainsAny(id, `/\.`) && id == filepath.Base(id)
}
