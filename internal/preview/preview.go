// Package preview draws template geometry and computed moves as a one-page
// PDF, so a layout can be checked without the editor.
package preview

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/photostack/boardkit/internal/errs"
	"github.com/photostack/boardkit/internal/layout"
	"github.com/photostack/boardkit/internal/models"
)

const (
	mmPerInch   = 25.4
	fallbackDPI = 72
	strokeMM    = 0.4
)

// BoxKind selects how a box is drawn.
type BoxKind int

const (
	BoxImage BoxKind = iota
	BoxName
	BoxFixed
)

// Box is one rectangle in document pixels.
type Box struct {
	Kind BoxKind
	Rect models.Rect
}

// Page is a drawable page in document pixels.
type Page struct {
	WidthPx  float64
	HeightPx float64
	DPI      float64
	Boxes    []Box
}

var palette = map[BoxKind]struct {
	fill, stroke color.Color
}{
	BoxImage: {canvas.Hex("#dbe8f7"), canvas.Hex("#2f6db5")},
	BoxName:  {canvas.Hex("#fbe7c6"), canvas.Hex("#c77c0e")},
	BoxFixed: {color.RGBA{0, 0, 0, 0}, canvas.Hex("#9a9a9a")},
}

// FromTemplate lays out every slot and fixed layer of t on the source document page.
func FromTemplate(t *models.Template) Page {
	p := Page{WidthPx: t.Source.WidthPx, HeightPx: t.Source.HeightPx, DPI: t.Source.DPI}
	for _, f := range t.FixedLayers {
		p.Boxes = append(p.Boxes, Box{Kind: BoxFixed, Rect: f.Rect})
	}
	for _, slots := range [][]models.Slot{t.PrimarySlots, t.SecondarySlots} {
		for _, s := range slots {
			p.Boxes = append(p.Boxes, Box{Kind: BoxImage, Rect: s.Image})
			if s.Name != nil {
				p.Boxes = append(p.Boxes, Box{Kind: BoxName, Rect: s.Name.Rect})
			}
		}
	}
	return p
}

// FromPlan shows where the moves put each layer of snap. Layers that are not
// moved keep their current position.
func FromPlan(snap *models.Snapshot, moves []models.Move) Page {
	target := make(map[string]models.Move, len(moves))
	for _, m := range moves {
		target[layerKey(m.GroupPath, m.LayerName)] = m
	}

	p := Page{WidthPx: snap.Document.WidthPx, HeightPx: snap.Document.HeightPx, DPI: snap.Document.DPI}
	for _, l := range snap.Layers {
		r := l.Bounds()
		if m, ok := target[layerKey(l.GroupPath, l.LayerName)]; ok {
			r.X, r.Y = m.TargetX, m.TargetY
		}
		kind := BoxFixed
		switch layout.RoleOf(l.GroupPath).Kind {
		case layout.RoleImage:
			kind = BoxImage
		case layout.RoleName:
			kind = BoxName
		}
		p.Boxes = append(p.Boxes, Box{Kind: kind, Rect: r})
	}
	return p
}

func layerKey(groupPath []string, name string) string {
	return strings.Join(groupPath, "/") + "/" + name
}

// Render writes p as a single-page PDF in millimetres.
func Render(w io.Writer, p Page) error {
	if p.WidthPx <= 0 || p.HeightPx <= 0 {
		return errs.E(errs.Invalid, "preview.Render", "page has no size", nil)
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = fallbackDPI
	}
	mm := func(px float64) float64 { return px / dpi * mmPerInch }

	width, height := mm(p.WidthPx), mm(p.HeightPx)
	writer := pdf.New(w, width, height, nil)
	writer.SetInfo("boardkit preview", "", "", "", "boardkit")

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetFillColor(canvas.White)
	ctx.SetStrokeColor(canvas.Black)
	ctx.SetStrokeWidth(strokeMM)
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	for _, b := range p.Boxes {
		colors := palette[b.Kind]
		ctx.SetFillColor(colors.fill)
		ctx.SetStrokeColor(colors.stroke)
		ctx.SetStrokeWidth(strokeMM)
		ctx.DrawPath(mm(b.Rect.X), mm(b.Rect.Y), canvas.Rectangle(mm(b.Rect.Width), mm(b.Rect.Height)))
	}

	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
