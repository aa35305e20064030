package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_StableIdentifiers(t *testing.T) {
	ds, err := NewDataset(DefaultReturnPeriods())
	require.NoError(t, err)

	first := ds.AddProperty(Property{Class: Residential, Address: "1 High St"})
	second := ds.AddProperty(Property{Class: Residential, Address: "2 High St"})
	third := ds.AddProperty(Property{Class: Residential, Address: "3 High St"})

	require.NoError(t, ds.RemoveProperty(second))

	props := ds.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, first, props[0].ID)
	assert.Equal(t, third, props[1].ID)

	// Deleted ids stay unknown
	assert.ErrorIs(t, ds.RemoveProperty(second), ErrUnknownID)
	assert.ErrorIs(t, ds.SetPropertyIncluded(second, true), ErrUnknownID)

	require.NoError(t, ds.UpdateProperty(third, Property{Class: Residential, Address: "3a High St"}))
	assert.Equal(t, third, ds.Properties()[1].ID)
	assert.Equal(t, "3a High St", ds.Properties()[1].Address)
}

func TestDataset_EditProperty(t *testing.T) {
	ds, err := NewDataset(DefaultReturnPeriods())
	require.NoError(t, err)

	id := ds.AddProperty(Property{Class: Residential})

	require.NoError(t, ds.SetPropertyIncluded(id, true))
	level := 12.5
	require.NoError(t, ds.SetGroundLevel(id, &level))

	p := ds.Properties()[0]
	assert.True(t, p.Included)
	require.NotNil(t, p.GroundLevel)
	assert.Equal(t, 12.5, *p.GroundLevel)

	require.NoError(t, ds.SetGroundLevel(id, nil))
	assert.Nil(t, ds.Properties()[0].GroundLevel)
}

func TestDataset_Nodes(t *testing.T) {
	ds, err := NewDataset([]int{10, 100})
	require.NoError(t, err)

	_, err = ds.AddNode(Node{Depths: []*float64{ptr(1)}})
	assert.ErrorIs(t, err, ErrDepthCountMismatch)

	id, err := ds.AddNode(Node{Depths: []*float64{ptr(1), ptr(2)}, Included: true})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	// Return periods are frozen while nodes exist
	assert.ErrorIs(t, ds.SetReturnPeriods([]int{5, 10, 100}), ErrNodesExist)

	require.NoError(t, ds.UpdateNode(id, Node{Depths: []*float64{ptr(3), nil}}))
	assert.Nil(t, ds.Nodes()[0].Depths[1])

	require.NoError(t, ds.RemoveNode(id))
	assert.ErrorIs(t, ds.RemoveNode(id), ErrUnknownID)

	require.NoError(t, ds.SetReturnPeriods([]int{5, 10, 100}))
	assert.Equal(t, []int{5, 10, 100}, ds.ReturnPeriods())
}

func TestDataset_Inputs(t *testing.T) {
	ds, err := NewDataset([]int{2, 20, 200})
	require.NoError(t, err)
	ds.AddProperty(Property{Class: Residential, MCM: 0, Included: true})

	in := ds.Inputs(DefaultFloodEventConfig())

	assert.Equal(t, []int{2, 20, 200}, in.Config.ReturnPeriods)
	assert.Len(t, in.Properties, 1)

	// Frozen inputs do not follow later edits
	ds.AddProperty(Property{Class: Residential})
	assert.Len(t, in.Properties, 1)
}

func TestNewDataset_RejectsBadReturnPeriods(t *testing.T) {
	_, err := NewDataset(nil)
	assert.ErrorIs(t, err, ErrReturnPeriods)

	_, err = NewDataset([]int{0, 10})
	assert.ErrorIs(t, err, ErrReturnPeriods)
}

func TestSnapshotPayload_RoundTrip(t *testing.T) {
	in := validInputs()
	snap := Snapshot{
		ID:      uuid.New(),
		Name:    "river scheme",
		Level:   LevelDetailed,
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Inputs:  in,
		Results: &Results{
			Summary: Summary{Total: SummaryRow{Label: "Total", AnnualDamage: 1234.5678912345}},
		},
	}

	value, err := snap.Payload().Value()
	require.NoError(t, err)

	var decoded SnapshotPayload
	require.NoError(t, decoded.Scan([]byte(value.(string))))

	assert.Equal(t, in.Config, decoded.Inputs.Config)
	assert.Equal(t, in.Properties[0].ID, decoded.Inputs.Properties[0].ID)
	require.NotNil(t, decoded.Results)
	assert.InDelta(t, 1234.5678912345, decoded.Results.Summary.Total.AnnualDamage, 1e-9)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"detailed"`)
}

func TestSnapshotPayload_ScanRejectsUnknownType(t *testing.T) {
	var p SnapshotPayload
	assert.Error(t, p.Scan(42))
	assert.NoError(t, p.Scan(nil))
}
