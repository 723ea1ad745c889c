// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriapp/memoria/spatial"
)

func clusterFixture() []*Memory {
	return []*Memory{
		{ID: "louvre", Title: "Louvre", Point: &spatial.Point{Lat: 48.8606, Lng: 2.3376}},
		{ID: "orsay", Title: "Orsay", Point: &spatial.Point{Lat: 48.8600, Lng: 2.3266}},
		{ID: "tour", Title: "Tour Eiffel", Point: &spatial.Point{Lat: 48.8584, Lng: 2.2945}},
		{ID: "colonia", Title: "Colonia", Point: &spatial.Point{Lat: -34.4707, Lng: -57.8444}},
		{ID: "ghost", Title: "No position"},
	}
}

func TestBuildDistanceClusters(t *testing.T) {
	counts := map[string]int{"louvre": 1, "orsay": 5}

	clusters := BuildDistanceClusters(clusterFixture(), counts, 2000)

	// Louvre and Orsay are ~800m apart; everything else is a singleton and
	// dropped. The unplaced memory never participates.
	require.Len(t, clusters, 1)

	cluster := clusters[0]
	assert.Equal(t, "Orsay", cluster.Title, "principal is the most-commented member")
	assert.Equal(t, 6, cluster.TotalComments)
	require.Len(t, cluster.Memories, 2)

	principal := cluster.Memories[0]
	assert.True(t, principal.IsPrincipal)
	assert.Equal(t, "orsay", principal.ID)
	assert.Zero(t, principal.DistanceFromPrincipal)

	other := cluster.Memories[1]
	assert.False(t, other.IsPrincipal)
	assert.InDelta(t, 810, other.DistanceFromPrincipal, 50)
}

func TestBuildDistanceClustersTransitive(t *testing.T) {
	// A chain of pins each within threshold of the previous one collapses
	// into a single cluster even when the ends are far apart.
	chain := []*Memory{
		{ID: "a", Title: "a", Point: &spatial.Point{Lat: 0, Lng: 0}},
		{ID: "b", Title: "b", Point: &spatial.Point{Lat: 0, Lng: 0.008}},
		{ID: "c", Title: "c", Point: &spatial.Point{Lat: 0, Lng: 0.016}},
	}

	clusters := BuildDistanceClusters(chain, nil, 1000)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Memories, 3)
}

func TestBuildCellClusters(t *testing.T) {
	// Same spot twice plus another continent: the pair always shares a cell,
	// the far pin never does. Cell clustering keeps singletons.
	memories := []*Memory{
		{ID: "tour-1", Title: "Tour Eiffel", Point: &spatial.Point{Lat: 48.8584, Lng: 2.2945}},
		{ID: "tour-2", Title: "Picnic below", Point: &spatial.Point{Lat: 48.8584, Lng: 2.2945}},
		{ID: "colonia", Title: "Colonia", Point: &spatial.Point{Lat: -34.4707, Lng: -57.8444}},
		{ID: "ghost", Title: "No position"},
	}
	counts := map[string]int{"tour-2": 2}

	clusters, err := BuildCellClusters(memories, counts, 5)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	paris := clusters[0]
	assert.Equal(t, "Picnic below", paris.Title, "principal is the most-commented member")
	assert.Equal(t, 2, paris.TotalComments)
	assert.Len(t, paris.Memories, 2)
	assert.NotEmpty(t, paris.Cell)

	colonia := clusters[1]
	assert.Equal(t, "Colonia", colonia.Title)
	assert.Len(t, colonia.Memories, 1)
	assert.True(t, colonia.Memories[0].IsPrincipal)
}

func TestBuildCellClustersFineResolutionSplits(t *testing.T) {
	// Paris and Colonia are thousands of kilometers apart; they cannot share
	// a cell at any supported resolution.
	clusters, err := BuildCellClusters(clusterFixture(), nil, 8)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(clusters), 2)

	cells := make(map[string]bool)
	for _, c := range clusters {
		cells[c.Cell] = true
	}

	assert.Len(t, cells, len(clusters), "each cluster carries a distinct cell")
}
