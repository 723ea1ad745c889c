// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"math"
	"testing"
)

func TestPointScan(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    Point
		wantErr bool
	}{
		{"nil resets", nil, Point{}, false},
		{"duckdb text", []byte("POINT (2.352200 48.856600)"), Point{Lat: 48.8566, Lng: 2.3522}, false},
		{"duckdb struct", map[string]interface{}{"x": -56.1645, "y": -34.9011}, Point{Lat: -34.9011, Lng: -56.1645}, false},
		{"bad struct", map[string]interface{}{"x": "nope"}, Point{}, true},
		{"unsupported", 42, Point{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Point

			err := p.Scan(tc.value)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if p != tc.want {
				t.Fatalf("want %+v, got %+v", tc.want, p)
			}
		})
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"origin", Point{}, true},
		{"montevideo", Point{Lat: -34.9011, Lng: -56.1645}, true},
		{"lat too high", Point{Lat: 90.1}, false},
		{"lng too low", Point{Lng: -180.5}, false},
		{"nan", Point{Lat: math.NaN()}, false},
		{"inf", Point{Lng: math.Inf(1)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Valid(); got != tc.want {
				t.Fatalf("Valid() want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	london := Point{Lat: 51.5074, Lng: -0.1278}

	d := paris.HaversineDistance(&london)

	// Known distance is ~343.5 km; allow a loose tolerance.
	if d < 340e3 || d > 347e3 {
		t.Fatalf("unexpected distance: %f", d)
	}

	if same := paris.HaversineDistance(&paris); same != 0 {
		t.Fatalf("distance to self should be 0, got %f", same)
	}
}
