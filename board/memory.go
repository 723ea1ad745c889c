// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package board owns the memory-board domain: stored memories and their
// comments, the DuckDB repositories, the HTTP API, the live snapshot stream,
// and the session layer gating moderation actions.
package board

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/memoriapp/memoria/normalize"
	"github.com/memoriapp/memoria/spatial"
)

// Memory is one pin on the board. Doc carries the raw document as submitted
// or imported; historic imports have heterogeneous shapes, so rendering
// always goes through the normalize package instead of trusting the typed
// columns.
type Memory struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Point       *spatial.Point    `json:"point"`
	Category    string            `json:"category,omitempty"`
	Color       string            `json:"color,omitempty"`
	Date        string            `json:"date,omitempty"`
	Images      []normalize.Image `json:"images,omitempty"`
	OwnerUID    string            `json:"owner_uid,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Doc         map[string]any    `json:"doc,omitempty"`
	H3Res1      int64             `json:"-"`
	H3Res2      int64             `json:"-"`
	H3Res3      int64             `json:"-"`
	H3Res4      int64             `json:"-"`
	H3Res5      int64             `json:"-"`
	H3Res6      int64             `json:"-"`
	H3Res7      int64             `json:"-"`
	H3Res8      int64             `json:"-"`
}

// Comment is one entry of a memory's comment thread. Threads are append-only
// except for per-comment deletion by the comment's author or the board owner.
type Comment struct {
	ID        int       `json:"id"`
	MemoryID  string    `json:"memory_id"`
	Author    string    `json:"author"`
	AuthorUID string    `json:"author_uid"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Memory) computeH3() error {
	if m.Point != nil {
		latLng := h3.NewLatLng(m.Point.Lat, m.Point.Lng)
		for res := 1; res <= 8; res++ {
			cell, err := h3.LatLngToCell(latLng, res)
			if err != nil {
				return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
			}

			switch res {
			case 1:
				m.H3Res1 = int64(cell)
			case 2:
				m.H3Res2 = int64(cell)
			case 3:
				m.H3Res3 = int64(cell)
			case 4:
				m.H3Res4 = int64(cell)
			case 5:
				m.H3Res5 = int64(cell)
			case 6:
				m.H3Res6 = int64(cell)
			case 7:
				m.H3Res7 = int64(cell)
			case 8:
				m.H3Res8 = int64(cell)
			}
		}
	} else {
		m.H3Res1 = 0
		m.H3Res2 = 0
		m.H3Res3 = 0
		m.H3Res4 = 0
		m.H3Res5 = 0
		m.H3Res6 = 0
		m.H3Res7 = 0
		m.H3Res8 = 0
	}

	return nil
}

// CanonicalDoc builds the canonical document shape for a memory written by
// this server. Imported rows keep whatever shape they arrived with.
func (m *Memory) CanonicalDoc() map[string]any {
	doc := map[string]any{
		"title":       m.Title,
		"description": m.Description,
	}

	if m.Point != nil {
		doc["latitude"] = m.Point.Lat
		doc["longitude"] = m.Point.Lng
	}

	if m.Category != "" {
		doc["category"] = m.Category
	}

	if m.Color != "" {
		doc["color"] = m.Color
	}

	if m.Date != "" {
		doc["date"] = m.Date
	}

	if len(m.Images) > 0 {
		images := make([]any, 0, len(m.Images))
		for _, img := range m.Images {
			images = append(images, map[string]any{"src": img.Src, "caption": img.Caption})
		}

		doc["images"] = images
	}

	return doc
}

// RenderDoc returns the document the rendering pipeline should read: the raw
// stored document when present, the canonical shape otherwise.
func (m *Memory) RenderDoc() map[string]any {
	if len(m.Doc) > 0 {
		return m.Doc
	}

	return m.CanonicalDoc()
}

// FromDoc builds a Memory from an arbitrary imported document, resolving the
// typed columns through the normalization rules and keeping the raw shape.
// Documents without a stored creation time get the import time, so ordering
// by created_at stays meaningful for seeded collections.
func FromDoc(doc map[string]any) *Memory {
	m := &Memory{
		Title:       normalize.Title(doc),
		Description: normalize.Description(doc),
		Category:    normalize.Category(doc),
		Images:      normalize.Images(doc),
		Doc:         doc,
	}

	if point, ok := normalize.Coordinates(doc); ok {
		m.Point = &point
	}

	if c, ok := normalize.ExplicitColor(doc); ok {
		m.Color = c
	}

	if date, ok := doc["date"].(string); ok {
		m.Date = date
	}

	m.CreatedAt = docTime(doc, "createdAt", "created_at", "created")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	m.UpdatedAt = docTime(doc, "updatedAt", "updated_at", "modified")
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	return m
}

// docTime resolves a stored timestamp from an imported document. Historic
// writers stored RFC 3339 strings or epoch seconds/milliseconds.
func docTime(doc map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
				return t
			}
		case float64:
			return epochTime(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return epochTime(f)
			}
		}
	}

	return time.Time{}
}

func epochTime(f float64) time.Time {
	n := int64(f)
	if n > 1e12 { // milliseconds
		return time.UnixMilli(n)
	}

	return time.Unix(n, 0)
}
