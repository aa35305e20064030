package appraisal

import "github.com/stwalsh4118/floodfas/internal/models"

// NearestNode returns the index of the node closest to the point (e, n) by planar
// Euclidean distance. Ties go to the earliest node. Returns -1 for no nodes.
func NearestNode(e, n float64, nodes []models.Node) int {
	if len(nodes) == 0 {
		return -1
	}

	p := models.Point{Easting: e, Northing: n}
	best := 0
	bestDistance := p.Distance(nodes[0].Location())

	for i := 1; i < len(nodes); i++ {
		if d := p.Distance(nodes[i].Location()); d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	return best
}

// ResolveDepths returns the flood depth at a property for each return period:
// the nearest node's water level minus the property's ground level. Negative
// depths mean the property sits above the flood. Callers pass included nodes only.
func ResolveDepths(p models.Property, nodes []models.Node) ([]float64, models.SkipReason) {
	if p.GroundLevel == nil {
		return nil, models.SkipGroundLevelUnresolved
	}

	idx := NearestNode(p.Easting, p.Northing, nodes)
	if idx < 0 {
		return nil, models.SkipNoIncludedNodes
	}

	levels := nodes[idx].Depths
	depths := make([]float64, len(levels))
	for i, level := range levels {
		if level == nil {
			return nil, models.SkipNodeDepthMissing
		}
		depths[i] = *level - *p.GroundLevel
	}

	return depths, models.SkipNone
}
