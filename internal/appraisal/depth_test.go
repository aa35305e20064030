package appraisal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/floodfas/internal/models"
)

func fp(v float64) *float64 { return &v }

func levels(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i := range vs {
		out[i] = fp(vs[i])
	}
	return out
}

func TestNearestNode(t *testing.T) {
	nodes := []models.Node{
		{Easting: 100, Northing: 0},
		{Easting: -100, Northing: 0},
		{Easting: 10, Northing: 10},
	}

	assert.Equal(t, 2, NearestNode(0, 0, nodes))
	assert.Equal(t, 1, NearestNode(-90, 5, nodes))
	assert.Equal(t, -1, NearestNode(0, 0, nil))
}

func TestNearestNode_TieGoesToFirst(t *testing.T) {
	nodes := []models.Node{
		{Easting: 1, Northing: 0},
		{Easting: -1, Northing: 0},
		{Easting: 0, Northing: 1},
	}

	assert.Equal(t, 0, NearestNode(0, 0, nodes))
}

func TestResolveDepths(t *testing.T) {
	nodes := []models.Node{
		{Easting: 0, Northing: 0, Depths: levels(10.5, 11, 12)},
		{Easting: 500, Northing: 500, Depths: []*float64{fp(1), nil, fp(3)}},
	}

	t.Run("depth is level minus ground", func(t *testing.T) {
		p := models.Property{Easting: 5, Northing: 5, GroundLevel: fp(10)}

		depths, reason := ResolveDepths(p, nodes)
		require.Equal(t, models.SkipNone, reason)
		assert.InDeltaSlice(t, []float64{0.5, 1, 2}, depths, 1e-12)
	})

	t.Run("property above the flood", func(t *testing.T) {
		p := models.Property{GroundLevel: fp(11.5)}

		depths, reason := ResolveDepths(p, nodes)
		require.Equal(t, models.SkipNone, reason)
		assert.Less(t, depths[0], 0.0)
	})

	t.Run("unresolved ground level", func(t *testing.T) {
		_, reason := ResolveDepths(models.Property{}, nodes)
		assert.Equal(t, models.SkipGroundLevelUnresolved, reason)
	})

	t.Run("no included nodes", func(t *testing.T) {
		_, reason := ResolveDepths(models.Property{GroundLevel: fp(1)}, nil)
		assert.Equal(t, models.SkipNoIncludedNodes, reason)
	})

	t.Run("missing node reading", func(t *testing.T) {
		p := models.Property{Easting: 490, Northing: 490, GroundLevel: fp(0)}

		_, reason := ResolveDepths(p, nodes)
		assert.Equal(t, models.SkipNodeDepthMissing, reason)
	})
}
