// Package layout captures board layouts into templates and replays them.
package layout

import "github.com/photostack/boardkit/internal/models"

// Cohort is one of the two groups of entries laid out independently.
type Cohort int

const (
	Primary Cohort = iota
	Secondary
)

// GroupName is the layer group name used for the cohort inside Images/, Names/ and Positions/.
func (c Cohort) GroupName() string {
	if c == Secondary {
		return "Teachers"
	}
	return "Students"
}

func (c Cohort) String() string {
	if c == Secondary {
		return "secondary"
	}
	return "primary"
}

// Cohorts lists every cohort in replay order.
var Cohorts = []Cohort{Primary, Secondary}

// RoleKind is what a layer is used for on the board.
type RoleKind int

const (
	RoleOther RoleKind = iota
	RoleImage
	RoleName
	RolePosition
)

func (k RoleKind) String() string {
	switch k {
	case RoleImage:
		return "image"
	case RoleName:
		return "name"
	case RolePosition:
		return "position"
	default:
		return "other"
	}
}

// LayerRole tags a layer with its kind and, except for RoleOther, its cohort.
type LayerRole struct {
	Kind   RoleKind
	Cohort Cohort
}

var rootRoles = map[string]RoleKind{
	"Images":    RoleImage,
	"Names":     RoleName,
	"Positions": RolePosition,
}

// RoleOf derives the role of a layer from its group path. Only the first
// two path elements matter.
func RoleOf(groupPath []string) LayerRole {
	if len(groupPath) < 2 {
		return LayerRole{Kind: RoleOther}
	}
	kind, ok := rootRoles[groupPath[0]]
	if !ok {
		return LayerRole{Kind: RoleOther}
	}
	switch groupPath[1] {
	case Primary.GroupName():
		return LayerRole{Kind: kind, Cohort: Primary}
	case Secondary.GroupName():
		return LayerRole{Kind: kind, Cohort: Secondary}
	}
	return LayerRole{Kind: RoleOther}
}

// GroupPath returns the canonical group path for a role.
func GroupPath(kind RoleKind, c Cohort) []string {
	for root, k := range rootRoles {
		if k == kind {
			return []string{root, c.GroupName()}
		}
	}
	return nil
}

// CohortLayers are the image and name layers of one cohort in document order.
type CohortLayers struct {
	Images    []models.LayerDescriptor
	Names     []models.LayerDescriptor
	Positions []models.LayerDescriptor
}

// NameFor returns the name layer paired with an image layer, if any.
func (c CohortLayers) NameFor(image models.LayerDescriptor) (models.LayerDescriptor, bool) {
	for _, n := range c.Names {
		if n.LayerName == image.LayerName {
			return n, true
		}
	}
	return models.LayerDescriptor{}, false
}

// Buckets is the result of classifying a snapshot's layers.
type Buckets struct {
	Cohorts [2]CohortLayers
	Other   []models.LayerDescriptor
}

// Cohort returns the layers of c.
func (b *Buckets) Cohort(c Cohort) CohortLayers {
	return b.Cohorts[c]
}

// Classify partitions layers by role, keeping document order within each bucket.
func Classify(layers []models.LayerDescriptor) Buckets {
	var b Buckets
	for _, l := range layers {
		role := RoleOf(l.GroupPath)
		bucket := &b.Cohorts[role.Cohort]
		switch role.Kind {
		case RoleImage:
			bucket.Images = append(bucket.Images, l)
		case RoleName:
			bucket.Names = append(bucket.Names, l)
		case RolePosition:
			bucket.Positions = append(bucket.Positions, l)
		default:
			b.Other = append(b.Other, l)
		}
	}
	return b
}
