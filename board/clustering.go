// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"fmt"
	"sort"

	"github.com/uber/h3-go/v4"

	"github.com/memoriapp/memoria/spatial"
)

// ClusterMemory is a single pin inside a cluster.
type ClusterMemory struct {
	ID                    string        `json:"id"`
	Title                 string        `json:"title"`
	Point                 spatial.Point `json:"point"`
	CommentCount          int           `json:"comment_count"`
	DistanceFromPrincipal float64       `json:"distance_from_principal"`
	IsPrincipal           bool          `json:"is_principal"`
}

// MemoryCluster represents a group of nearby pins. The principal is the
// most-commented member; clients render the cluster at its position.
type MemoryCluster struct {
	Cell          string           `json:"cell,omitempty"`
	Title         string           `json:"title"`
	TotalComments int              `json:"total_comments"`
	Memories      []*ClusterMemory `json:"memories"`
}

// clusterByDistance groups memories into clusters based on a distance
// threshold in meters. Memories without a position are skipped.
func clusterByDistance(memories []*Memory, distanceThreshold float64) [][]*Memory {
	placed := make([]*Memory, 0, len(memories))

	for _, m := range memories {
		if m.Point != nil {
			placed = append(placed, m)
		}
	}

	clusters := make([][]*Memory, 0, len(placed))

	visited := make([]bool, len(placed))

	for i, m1 := range placed {
		if visited[i] {
			continue
		}

		cluster := []*Memory{m1}
		visited[i] = true

		for j, m2 := range placed {
			if visited[j] {
				continue
			}

			// Check distance against all members of the current cluster
			for _, member := range cluster {
				if m2.Point.HaversineDistance(member.Point) <= distanceThreshold {
					cluster = append(cluster, m2)
					visited[j] = true

					break // Move to next memory once it's added to the cluster
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// clusterByCell groups memories by their H3 cell at the given resolution
// (1..8).
func clusterByCell(memories []*Memory, res int) (map[string][]*Memory, error) {
	groups := make(map[string][]*Memory)

	for _, m := range memories {
		if m.Point == nil {
			continue
		}

		cell, err := h3.LatLngToCell(h3.NewLatLng(m.Point.Lat, m.Point.Lng), res)
		if err != nil {
			return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		key := cell.String()
		groups[key] = append(groups[key], m)
	}

	return groups, nil
}

// buildCluster turns one group of memories into a cluster view: principal
// selection by comment count, member distances from the principal.
func buildCluster(cell string, group []*Memory, counts map[string]int) *MemoryCluster {
	members := make([]*ClusterMemory, len(group))

	totalComments := 0

	for i, m := range group {
		count := counts[m.ID]
		members[i] = &ClusterMemory{
			ID:           m.ID,
			Title:        m.Title,
			Point:        *m.Point,
			CommentCount: count,
		}
		totalComments += count
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].CommentCount != members[j].CommentCount {
			return members[i].CommentCount > members[j].CommentCount
		}

		return members[i].ID < members[j].ID
	})

	principal := members[0]
	principal.IsPrincipal = true

	for _, member := range members {
		member.DistanceFromPrincipal = principal.Point.HaversineDistance(&member.Point)
	}

	return &MemoryCluster{
		Cell:          cell,
		Title:         principal.Title,
		TotalComments: totalComments,
		Memories:      members,
	}
}

// BuildCellClusters groups placed memories by H3 cell at the given
// resolution and returns clusters sorted by total comment count.
func BuildCellClusters(memories []*Memory, counts map[string]int, res int) ([]*MemoryCluster, error) {
	groups, err := clusterByCell(memories, res)
	if err != nil {
		return nil, err
	}

	result := make([]*MemoryCluster, 0, len(groups))

	for cell, group := range groups {
		result = append(result, buildCluster(cell, group, counts))
	}

	sortClusters(result)

	return result, nil
}

// BuildDistanceClusters groups placed memories by a haversine threshold in
// meters. Singleton clusters are dropped; the caller wants groups worth
// merging or collapsing in the UI.
func BuildDistanceClusters(memories []*Memory, counts map[string]int, threshold float64) []*MemoryCluster {
	groups := clusterByDistance(memories, threshold)

	result := make([]*MemoryCluster, 0, len(groups))

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		result = append(result, buildCluster("", group, counts))
	}

	sortClusters(result)

	return result
}

func sortClusters(clusters []*MemoryCluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].TotalComments != clusters[j].TotalComments {
			return clusters[i].TotalComments > clusters[j].TotalComments
		}

		return clusters[i].Title < clusters[j].Title
	})
}
