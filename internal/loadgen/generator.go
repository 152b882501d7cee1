package loadgen

import (
	"math/rand/v2"

	"github.com/okian/sightmark/internal/domain/model"
)

// Ranges for generated inputs.
const (
	minImagePx    = 400
	imagePxRange  = 3600
	minDistanceM  = 5
	distanceRange = 85
	minRadiusMM   = 600
	radiusRange   = 400
	gridStep      = 0.5 // points snap to half percent, like a tap on a phone screen
)

// Generator produces random but valid batch items.
type Generator struct {
	rng   *rand.Rand
	faces []float64
}

// NewGenerator returns a deterministic generator for seed. Items use only the
// given target faces.
func NewGenerator(seed uint64, faces []float64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), faces: faces}
}

// Batch returns n items.
func (g *Generator) Batch(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = g.item()
	}
	return items
}

func (g *Generator) item() Item {
	size := Size{
		Width:  float64(minImagePx + g.rng.IntN(imagePxRange)),
		Height: float64(minImagePx + g.rng.IntN(imagePxRange)),
	}
	return Item{
		Gold:          g.point(),
		Group:         g.point(),
		Image:         size,
		TargetFaceCM:  g.faces[g.rng.IntN(len(g.faces))],
		DistanceM:     float64(minDistanceM + g.rng.IntN(distanceRange)),
		SightRadiusMM: float64(minRadiusMM + g.rng.IntN(radiusRange)),
	}
}

func (g *Generator) point() model.Point {
	steps := int(100 / gridStep)
	return model.Point{
		X: float64(g.rng.IntN(steps+1)) * gridStep,
		Y: float64(g.rng.IntN(steps+1)) * gridStep,
	}
}
