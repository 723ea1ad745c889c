// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package normalize turns raw memory documents, as stored over the years by
// several inconsistent writers, into render-ready marker descriptors. Every
// function here is total: malformed input degrades to a sentinel or a
// default, never to an error.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/memoriapp/memoria/spatial"
)

// coordinatePass is one step of the coordinate resolution order. Earlier
// passes are strict about field names and types; the last one accepts the
// alternate casings and numeric-parseable text found in historic rows.
type coordinatePass struct {
	latKeys []string
	lngKeys []string
	text    bool
}

var coordinatePasses = []coordinatePass{
	{latKeys: []string{"latitude"}, lngKeys: []string{"longitude"}},
	{latKeys: []string{"lat"}, lngKeys: []string{"lng", "lon"}},
	{
		latKeys: []string{"latitude", "lat", "Latitude", "LAT"},
		lngKeys: []string{"longitude", "lng", "lon", "Longitude", "LONG"},
		text:    true,
	},
}

// Coordinates resolves a document to a canonical (latitude, longitude) pair.
// The second return value is false when no candidate pair resolves to two
// finite numbers; such documents are skipped by the rendering layer, they
// are not an error.
func Coordinates(doc map[string]any) (spatial.Point, bool) {
	if doc == nil {
		return spatial.Point{}, false
	}

	for _, pass := range coordinatePasses {
		lat, okLat := firstNumber(doc, pass.latKeys, pass.text)
		lng, okLng := firstNumber(doc, pass.lngKeys, pass.text)

		if okLat && okLng && finite(lat) && finite(lng) {
			return spatial.Point{Lat: lat, Lng: lng}, true
		}
	}

	return spatial.Point{}, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// firstNumber returns the value of the first candidate key that converts to
// a float64. Text is only parsed when the pass allows it.
func firstNumber(doc map[string]any, keys []string, text bool) (float64, bool) {
	for _, key := range keys {
		v, present := doc[key]
		if !present {
			continue
		}

		if f, ok := asNumber(v, text); ok {
			return f, true
		}
	}

	return 0, false
}

func asNumber(v any, text bool) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	case string:
		if !text {
			return 0, false
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)

		return f, err == nil
	default:
		return 0, false
	}
}
