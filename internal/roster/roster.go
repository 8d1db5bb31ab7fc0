// Package roster turns a class roster into the payloads consumed by the
// add-names and place-photos fragments.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/photostack/boardkit/internal/assets"
	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/layout"
	"github.com/photostack/boardkit/internal/naming"
)

// TypeTeacher marks a secondary cohort entry. Any other type is primary.
const TypeTeacher = "teacher"

// Person is one roster entry.
type Person struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	PhotoURL string `json:"photoUrl,omitempty" yaml:"photo_url,omitempty"`
}

// Cohort returns the cohort the person is laid out in.
func (p Person) Cohort() layout.Cohort {
	if p.Type == TypeTeacher {
		return layout.Secondary
	}
	return layout.Primary
}

// LayerName is the stable layer name shared by the person's image and name layers.
func (p Person) LayerName() string {
	id := p.ID
	return naming.StableID(p.Name, &id)
}

// Stats counts the entries of a payload.
type Stats struct {
	Students  int  `json:"students"`
	Teachers  int  `json:"teachers"`
	Total     int  `json:"total"`
	WithPhoto *int `json:"withPhoto,omitempty"`
}

// NameLayer is one caption to create.
type NameLayer struct {
	LayerName   string `json:"layerName"`
	DisplayText string `json:"displayText"`
	Group       string `json:"group"`
}

// NamesPayload is the data file of the add-names fragment.
type NamesPayload struct {
	Layers    []NameLayer `json:"layers"`
	TextAlign string      `json:"textAlign"`
	Stats     Stats       `json:"stats"`
}

// ImageLayer is one photo placeholder to create.
type ImageLayer struct {
	LayerName string  `json:"layerName"`
	Group     string  `json:"group"`
	WidthPx   int     `json:"widthPx"`
	HeightPx  int     `json:"heightPx"`
	PhotoPath *string `json:"photoPath"`
}

// ImagesPayload is the data file of the place-photos fragment.
type ImagesPayload struct {
	Layers []ImageLayer `json:"layers"`
	Stats  Stats        `json:"stats"`
}

// ImageSize is the placed photo size.
type ImageSize struct {
	WidthCm  float64
	HeightCm float64
	DPI      float64
}

// Pixels converts the size to pixels at its DPI.
func (s ImageSize) Pixels() assets.Size {
	return assets.Size{
		Width:  int(math.Round(s.WidthCm / 2.54 * s.DPI)),
		Height: int(math.Round(s.HeightCm / 2.54 * s.DPI)),
	}
}

// Load reads a roster from a JSON or YAML file, chosen by extension.
func Load(path string) ([]Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.E(errs.NotFound, "roster.Load", fmt.Sprintf("roster not found: %s", path), err)
		}
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var persons []Person
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &persons)
	default:
		err = json.Unmarshal(data, &persons)
	}
	if err != nil {
		return nil, errs.E(errs.MalformedPayload, "roster.Load", path, err)
	}
	for i, p := range persons {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errs.E(errs.Invalid, "roster.Load", fmt.Sprintf("entry %d has no name", i), nil)
		}
	}
	return persons, nil
}

// ordered returns primary entries followed by secondary ones, each in input order.
func ordered(persons []Person) (all []Person, stats Stats) {
	for _, c := range layout.Cohorts {
		for _, p := range persons {
			if p.Cohort() != c {
				continue
			}
			all = append(all, p)
			if c == layout.Primary {
				stats.Students++
			} else {
				stats.Teachers++
			}
		}
	}
	stats.Total = len(persons)
	return all, stats
}

// PrepareNames builds the caption payload, breaking long names after
// breakAfter real words.
func PrepareNames(persons []Person, breakAfter int, textAlign string) NamesPayload {
	all, stats := ordered(persons)
	layers := make([]NameLayer, 0, len(all))
	for _, p := range all {
		layers = append(layers, NameLayer{
			LayerName:   p.LayerName(),
			DisplayText: naming.BreakName(p.Name, breakAfter),
			Group:       p.Cohort().GroupName(),
		})
	}
	return NamesPayload{Layers: layers, TextAlign: textAlign, Stats: stats}
}

// PrepareImages downloads every entry's photo, cover-fitted to size, with at
// most limit downloads in flight. Entries without a URL or whose download
// fails get a nil PhotoPath.
func PrepareImages(ctx context.Context, f *assets.Fetcher, persons []Person, size ImageSize, limit int) ImagesPayload {
	all, stats := ordered(persons)
	target := size.Pixels()

	reqs := make([]assets.Request, 0, len(all))
	for _, p := range all {
		name := p.LayerName()
		req := assets.Request{Key: name, URL: p.PhotoURL}
		if p.PhotoURL != "" {
			req.FileName = assets.FileNameFor(name, p.PhotoURL)
			req.Target = &target
		}
		reqs = append(reqs, req)
	}
	results := f.FetchAll(ctx, reqs, limit)

	withPhoto := 0
	layers := make([]ImageLayer, 0, len(all))
	for i, p := range all {
		layer := ImageLayer{
			LayerName: results[i].Key,
			Group:     p.Cohort().GroupName(),
			WidthPx:   target.Width,
			HeightPx:  target.Height,
		}
		if results[i].Path != "" {
			path := results[i].Path
			layer.PhotoPath = &path
			withPhoto++
		}
		layers = append(layers, layer)
	}
	stats.WithPhoto = &withPhoto

	slog.Info("Photos prepared", "total", stats.Total, "with_photo", withPhoto, "width_px", target.Width, "height_px", target.Height)
	return ImagesPayload{Layers: layers, Stats: stats}
}
