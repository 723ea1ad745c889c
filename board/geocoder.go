// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder suggests coordinates for a typed place or address. The submission
// form offers it when a memory arrives without a map click.
type Geocoder interface {
	Geocode(address string, region string) (*GeocodingResult, error)
}
