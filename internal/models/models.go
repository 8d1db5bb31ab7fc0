package models

import "time"

// Rect is an axis-aligned rectangle in document pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NameRect is the caption rectangle of a slot.
type NameRect struct {
	Rect
	Justification string `json:"justification"` // "left", "center", "right"
}

// Slot is one stored position within a template grid.
type Slot struct {
	Index int       `json:"index"`
	Image Rect      `json:"image"`
	Name  *NameRect `json:"name"`
}

// DocumentInfo describes the document a layout was read from.
type DocumentInfo struct {
	Name     string  `json:"name"`
	WidthPx  float64 `json:"widthPx"`
	HeightPx float64 `json:"heightPx"`
	DPI      float64 `json:"dpi"`
}

// BoardSettings holds the physical board parameters, all lengths in cm.
type BoardSettings struct {
	WidthCm   float64 `json:"widthCm" yaml:"width_cm"`
	HeightCm  float64 `json:"heightCm" yaml:"height_cm"`
	MarginCm  float64 `json:"marginCm" yaml:"margin_cm"`
	GapHCm    float64 `json:"gapHCm" yaml:"gap_h_cm"`
	GapVCm    float64 `json:"gapVCm" yaml:"gap_v_cm"`
	GridAlign string  `json:"gridAlign" yaml:"grid_align"`
}

// NameSettings controls how name captions are rendered.
type NameSettings struct {
	NameGapCm      float64 `json:"nameGapCm" yaml:"gap_cm"`
	TextAlign      string  `json:"textAlign" yaml:"text_align"`
	NameBreakAfter int     `json:"nameBreakAfter" yaml:"break_after"`
}

// FixedLayer is a captured layer that is not part of any slot (background, title, ...).
type FixedLayer struct {
	LayerName string   `json:"layerName"`
	GroupPath []string `json:"groupPath"`
	Rect
	Kind string `json:"kind"`
}

// Template is a saved geometric snapshot of a board layout.
type Template struct {
	Version        int           `json:"version"`
	Type           string        `json:"type"`
	ID             string        `json:"id"`
	Name           string        `json:"templateName"`
	CreatedAt      time.Time     `json:"createdAt"`
	Source         DocumentInfo  `json:"source"`
	Board          BoardSettings `json:"board"`
	NameSettings   NameSettings  `json:"nameSettings"`
	PrimarySlots   []Slot        `json:"studentSlots"`
	SecondarySlots []Slot        `json:"teacherSlots"`
	FixedLayers    []FixedLayer  `json:"fixedLayers,omitempty"`
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	c := *t
	c.PrimarySlots = cloneSlots(t.PrimarySlots)
	c.SecondarySlots = cloneSlots(t.SecondarySlots)
	if t.FixedLayers != nil {
		c.FixedLayers = make([]FixedLayer, len(t.FixedLayers))
		for i, l := range t.FixedLayers {
			l.GroupPath = append([]string(nil), l.GroupPath...)
			c.FixedLayers[i] = l
		}
	}
	return &c
}

func cloneSlots(slots []Slot) []Slot {
	if slots == nil {
		return nil
	}
	out := make([]Slot, len(slots))
	for i, s := range slots {
		if s.Name != nil {
			name := *s.Name
			s.Name = &name
		}
		out[i] = s
	}
	return out
}

// TemplateSummary is the short listing form of a template.
type TemplateSummary struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"templateName" yaml:"name"`
	CreatedAt          time.Time `json:"createdAt" yaml:"created_at"`
	PrimarySlotCount   int       `json:"studentSlotCount" yaml:"primary_slots"`
	SecondarySlotCount int       `json:"teacherSlotCount" yaml:"secondary_slots"`
	BoardWidthCm       float64   `json:"boardWidthCm" yaml:"board_width_cm"`
	BoardHeightCm      float64   `json:"boardHeightCm" yaml:"board_height_cm"`
	SourceDocName      string    `json:"sourceDocName" yaml:"source_doc"`
}

// Summary builds the listing form of t.
func (t *Template) Summary() TemplateSummary {
	return TemplateSummary{
		ID:                 t.ID,
		Name:               t.Name,
		CreatedAt:          t.CreatedAt,
		PrimarySlotCount:   len(t.PrimarySlots),
		SecondarySlotCount: len(t.SecondarySlots),
		BoardWidthCm:       t.Board.WidthCm,
		BoardHeightCm:      t.Board.HeightCm,
		SourceDocName:      t.Source.Name,
	}
}

// LayerDescriptor is one layer of a layout snapshot.
type LayerDescriptor struct {
	LayerID       int      `json:"layerId"`
	LayerName     string   `json:"layerName"`
	GroupPath     []string `json:"groupPath"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	Kind          string   `json:"kind"` // "normal" or "text"
	Text          string   `json:"text,omitempty"`
	Justification string   `json:"justification,omitempty"`
}

// Bounds returns the layer rectangle.
func (l LayerDescriptor) Bounds() Rect {
	return Rect{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
}

// Snapshot is the read-only description of a document's current layers.
type Snapshot struct {
	Document DocumentInfo      `json:"document"`
	Layers   []LayerDescriptor `json:"layers"`
}

// Move repositions one layer.
type Move struct {
	LayerName     string   `json:"layerName"`
	GroupPath     []string `json:"groupPath"`
	TargetX       float64  `json:"targetX"`
	TargetY       float64  `json:"targetY"`
	Justification string   `json:"justification,omitempty"`
}

// MoveList is the data file payload consumed by the apply fragment.
type MoveList struct {
	Moves []Move `json:"moves"`
}
