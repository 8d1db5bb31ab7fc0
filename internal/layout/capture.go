package layout

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/models"
)

const (
	// LayoutMarker prefixes the layout payload printed by the read fragment.
	LayoutMarker = "__LAYOUT_JSON__"

	// TemplateVersion is written into every captured template.
	TemplateVersion = 1
	templateType    = "template"
)

// ParseLayout extracts the snapshot that follows LayoutMarker in the read
// fragment's output.
func ParseLayout(output string) (*models.Snapshot, error) {
	const op = "layout.ParseLayout"

	idx := strings.Index(output, LayoutMarker)
	if idx < 0 {
		return nil, errs.E(errs.MalformedPayload, op, "layout marker not found in script output", nil)
	}
	payload := output[idx+len(LayoutMarker):]
	if nl := strings.IndexByte(payload, '\n'); nl >= 0 {
		payload = payload[:nl]
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &snap); err != nil {
		return nil, errs.E(errs.MalformedPayload, op, "failed to parse layout payload", err)
	}
	return &snap, nil
}

// CaptureTemplate records the current rectangle of every image layer (and
// its paired name layer) as a slot. Layers outside the image and name groups
// are kept as fixed layers. The returned template has no ID yet.
func CaptureTemplate(name string, snap *models.Snapshot, board models.BoardSettings, names models.NameSettings) *models.Template {
	buckets := Classify(snap.Layers)

	tmpl := &models.Template{
		Version:        TemplateVersion,
		Type:           templateType,
		Name:           strings.TrimSpace(name),
		CreatedAt:      time.Now().UTC(),
		Source:         snap.Document,
		Board:          board,
		NameSettings:   names,
		PrimarySlots:   buildSlots(buckets.Cohort(Primary)),
		SecondarySlots: buildSlots(buckets.Cohort(Secondary)),
	}

	for _, c := range Cohorts {
		for _, l := range buckets.Cohort(c).Positions {
			tmpl.FixedLayers = append(tmpl.FixedLayers, fixedLayer(l))
		}
	}
	for _, l := range buckets.Other {
		tmpl.FixedLayers = append(tmpl.FixedLayers, fixedLayer(l))
	}
	return tmpl
}

func buildSlots(layers CohortLayers) []models.Slot {
	slots := make([]models.Slot, 0, len(layers.Images))
	for i, img := range layers.Images {
		slot := models.Slot{Index: i, Image: img.Bounds()}
		if n, ok := layers.NameFor(img); ok {
			justification := n.Justification
			if justification == "" {
				justification = defaultJustification
			}
			slot.Name = &models.NameRect{Rect: n.Bounds(), Justification: justification}
		}
		slots = append(slots, slot)
	}
	return slots
}

func fixedLayer(l models.LayerDescriptor) models.FixedLayer {
	return models.FixedLayer{
		LayerName: l.LayerName,
		GroupPath: l.GroupPath,
		Rect:      l.Bounds(),
		Kind:      l.Kind,
	}
}
