// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package normalize

import "github.com/memoriapp/memoria/spatial"

// Marker is the render-ready description of one memory pin: placement,
// tooltip and popup content, and visual style.
type Marker struct {
	Point       spatial.Point `json:"point"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category,omitempty"`
	Images      []Image       `json:"images,omitempty"`
	Color       string        `json:"color"`
	Icon        *Icon         `json:"icon"`
}

// Resolve normalizes one raw document into a marker. It reports false when
// the document has no resolvable position, in which case the pin is silently
// excluded from rendering.
func Resolve(doc map[string]any, icons *IconCache) (Marker, bool) {
	point, ok := Coordinates(doc)
	if !ok {
		return Marker{}, false
	}

	color := Color(doc)

	return Marker{
		Point:       point,
		Title:       Title(doc),
		Description: Description(doc),
		Category:    Category(doc),
		Images:      Images(doc),
		Color:       color,
		Icon:        icons.Get(color),
	}, true
}
