package layout

import (
	"math"

	"github.com/photostack/boardkit/internal/models"
)

const defaultJustification = "center"

// Plan is the computed move list for one apply operation.
type Plan struct {
	Moves    []models.Move
	DPIScale float64
	// Placed counts image layers moved onto a template slot.
	Placed int
	// Overflow counts image layers placed on the computed overflow grid.
	Overflow int
	// Skipped counts overflow image layers left in place because the cohort has no slots.
	Skipped int
}

// Empty reports whether the plan moves nothing.
func (p *Plan) Empty() bool {
	return len(p.Moves) == 0
}

// CmToPx converts a length in centimeters to whole pixels at dpi.
func CmToPx(cm, dpi float64) float64 {
	return math.Round(cm / 2.54 * dpi)
}

// grid holds the overflow measurements of one cohort. It is computed once
// per cohort and passed to every overflow placement.
type grid struct {
	photoW, photoH float64
	nameGap, nameH float64
	margin         float64
	gapH, gapV     float64
	columns        int
	startY         float64
	justification  string
}

func (g grid) rowHeight() float64 {
	return g.photoH + g.nameGap + g.nameH + g.gapV
}

// position returns the image origin of the k-th overflow entry.
func (g grid) position(k int) (float64, float64) {
	row := k / g.columns
	col := k % g.columns
	return g.margin + float64(col)*(g.photoW+g.gapH), g.startY + float64(row)*g.rowHeight()
}

func newGrid(tmpl *models.Template, slots []models.Slot, doc models.DocumentInfo, scale float64) grid {
	dpi := doc.DPI
	if dpi <= 0 {
		dpi = tmpl.Source.DPI
	}

	first := slots[0]
	g := grid{
		photoW:        first.Image.Width * scale,
		photoH:        first.Image.Height * scale,
		nameGap:       CmToPx(tmpl.NameSettings.NameGapCm, dpi),
		margin:        CmToPx(tmpl.Board.MarginCm, dpi),
		gapH:          CmToPx(tmpl.Board.GapHCm, dpi),
		gapV:          CmToPx(tmpl.Board.GapVCm, dpi),
		justification: tmpl.NameSettings.TextAlign,
	}
	if first.Name != nil {
		g.nameH = first.Name.Height * scale
		if first.Name.Justification != "" {
			g.justification = first.Name.Justification
		}
	}
	if g.justification == "" {
		g.justification = defaultJustification
	}

	boardW := CmToPx(tmpl.Board.WidthCm, dpi)
	if boardW <= 0 {
		boardW = doc.WidthPx
	}
	g.columns = 1
	if step := g.photoW + g.gapH; step > 0 {
		if n := int(math.Floor((boardW - 2*g.margin + g.gapH) / step)); n > 1 {
			g.columns = n
		}
	}

	// The lowest slot row anchors the overflow grid, wherever it sits in slot order.
	lastY := math.Inf(-1)
	for _, s := range slots {
		lastY = math.Max(lastY, s.Image.Y*scale)
	}
	g.startY = lastY + g.rowHeight()
	return g
}

// DPIScale is the factor applied to template coordinates when replaying
// onto doc. It is 1 when either resolution is unknown.
func DPIScale(tmpl *models.Template, doc models.DocumentInfo) float64 {
	if tmpl.Source.DPI <= 0 || doc.DPI <= 0 {
		return 1
	}
	return doc.DPI / tmpl.Source.DPI
}

// ComputeMoves computes where every image and name layer of snap goes when
// tmpl is replayed onto it. The result depends only on its inputs and is
// ordered primary cohort first, then by layer order, image before name.
func ComputeMoves(tmpl *models.Template, snap *models.Snapshot) Plan {
	return PlanMoves(tmpl, Classify(snap.Layers), snap.Document)
}

// PlanMoves is ComputeMoves over layers that were already classified.
func PlanMoves(tmpl *models.Template, buckets Buckets, doc models.DocumentInfo) Plan {
	plan := Plan{DPIScale: DPIScale(tmpl, doc)}
	for _, c := range Cohorts {
		slots := tmpl.PrimarySlots
		if c == Secondary {
			slots = tmpl.SecondarySlots
		}
		computeCohort(&plan, tmpl, slots, buckets.Cohort(c), doc)
	}
	return plan
}

func computeCohort(plan *Plan, tmpl *models.Template, slots []models.Slot, layers CohortLayers, doc models.DocumentInfo) {
	scale := plan.DPIScale

	var g grid
	if len(slots) > 0 && len(layers.Images) > len(slots) {
		g = newGrid(tmpl, slots, doc, scale)
	}

	for i, img := range layers.Images {
		name, hasName := layers.NameFor(img)

		if i < len(slots) {
			slot := slots[i]
			plan.Moves = append(plan.Moves, models.Move{
				LayerName: img.LayerName,
				GroupPath: img.GroupPath,
				TargetX:   slot.Image.X * scale,
				TargetY:   slot.Image.Y * scale,
			})
			plan.Placed++
			if slot.Name != nil && hasName {
				justification := slot.Name.Justification
				if justification == "" {
					justification = defaultJustification
				}
				plan.Moves = append(plan.Moves, models.Move{
					LayerName:     name.LayerName,
					GroupPath:     name.GroupPath,
					TargetX:       slot.Name.X * scale,
					TargetY:       slot.Name.Y * scale,
					Justification: justification,
				})
			}
			continue
		}

		if len(slots) == 0 {
			plan.Skipped++
			continue
		}

		x, y := g.position(i - len(slots))
		plan.Moves = append(plan.Moves, models.Move{
			LayerName: img.LayerName,
			GroupPath: img.GroupPath,
			TargetX:   x,
			TargetY:   y,
		})
		plan.Overflow++
		if hasName {
			plan.Moves = append(plan.Moves, models.Move{
				LayerName:     name.LayerName,
				GroupPath:     name.GroupPath,
				TargetX:       x,
				TargetY:       y + g.photoH + g.nameGap,
				Justification: g.justification,
			})
		}
	}
}
