// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriapp/memoria/spatial"
)

func TestResolve(t *testing.T) {
	icons := NewIconCache(DefaultColor)

	doc := map[string]any{
		"title":       "Picnic at the lake",
		"description": "First warm day of the year",
		"category":    "friends",
		"lat":         "48.8",
		"lon":         "2.3",
		"images":      []any{"a.jpg", map[string]any{"url": "b.jpg", "caption": "Sunset"}},
	}

	marker, ok := Resolve(doc, icons)
	require.True(t, ok)

	assert.Equal(t, spatial.Point{Lat: 48.8, Lng: 2.3}, marker.Point)
	assert.Equal(t, "Picnic at the lake", marker.Title)
	assert.Equal(t, "First warm day of the year", marker.Description)
	assert.Equal(t, "friends", marker.Category)
	assert.Equal(t, categoryColors["friends"], marker.Color)
	require.NotNil(t, marker.Icon)
	assert.Equal(t, marker.Color, marker.Icon.Color)

	want := []Image{{Src: "a.jpg"}, {Src: "b.jpg", Caption: "Sunset"}}
	if diff := cmp.Diff(want, marker.Images); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSkipsUnplaceable(t *testing.T) {
	icons := NewIconCache(DefaultColor)

	_, ok := Resolve(map[string]any{"title": "Lost pin"}, icons)
	assert.False(t, ok)

	_, ok = Resolve(nil, icons)
	assert.False(t, ok)
}

func TestResolveDefaults(t *testing.T) {
	icons := NewIconCache(DefaultColor)

	marker, ok := Resolve(map[string]any{"latitude": 1.0, "longitude": 2.0}, icons)
	require.True(t, ok)

	assert.Equal(t, DefaultTitle, marker.Title)
	assert.Empty(t, marker.Description)
	assert.Empty(t, marker.Images)
	assert.Equal(t, DefaultColor, marker.Color)
}

func TestResolveIdempotent(t *testing.T) {
	icons := NewIconCache(DefaultColor)
	doc := map[string]any{"latitude": 1.0, "longitude": 2.0, "color": "#abc"}

	first, okFirst := Resolve(doc, icons)
	second, okSecond := Resolve(doc, icons)

	require.Equal(t, okFirst, okSecond)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Resolve is not idempotent (-first +second):\n%s", diff)
	}
}
