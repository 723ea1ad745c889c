// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package normalize

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// DefaultColor marks pins whose document carries neither a valid explicit
// colour nor a known category.
const DefaultColor = "#3388ff"

var colorKeys = []string{"color", "colour"}

var categoryKeys = []string{"category", "Category"}

// categoryColors maps lower-cased, trimmed category labels to marker colours.
var categoryColors = map[string]string{
	"travel":      "#e6550d",
	"family":      "#31a354",
	"friends":     "#756bb1",
	"food":        "#d6616b",
	"work":        "#636363",
	"nature":      "#2ca25f",
	"celebration": "#dd1c77",
}

var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// CategoryColors returns a copy of the category→colour table.
func CategoryColors() map[string]string {
	table := make(map[string]string, len(categoryColors))
	for category, color := range categoryColors {
		table[category] = color
	}

	return table
}

// NormalizeColor canonicalizes a colour string to lowercase "#rrggbb" form.
// Three-digit shorthand is expanded; anything else reports false and the
// colour is treated as absent.
func NormalizeColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !hexColorRegex.MatchString(s) {
		return "", false
	}

	s = strings.ToLower(s)
	if len(s) == 4 { // #abc -> #aabbcc
		s = fmt.Sprintf("#%c%c%c%c%c%c", s[1], s[1], s[2], s[2], s[3], s[3])
	}

	return s, true
}

// ExplicitColor resolves a document's explicit colour field ("color" or
// "colour") to canonical form. It reports false when neither field holds a
// valid colour; the category table and the default do not apply here.
func ExplicitColor(doc map[string]any) (string, bool) {
	if doc == nil {
		return "", false
	}

	if raw, ok := firstText(doc, colorKeys); ok {
		return NormalizeColor(raw)
	}

	return "", false
}

// Color resolves the marker colour of a document: a valid explicit colour
// field wins, then the category table, then DefaultColor.
func Color(doc map[string]any) string {
	if doc == nil {
		return DefaultColor
	}

	if c, ok := ExplicitColor(doc); ok {
		return c
	}

	if category, ok := firstText(doc, categoryKeys); ok {
		if c, ok := categoryColors[strings.ToLower(strings.TrimSpace(category))]; ok {
			return c
		}
	}

	return DefaultColor
}

// Category resolves the display category label of a document, empty when
// absent.
func Category(doc map[string]any) string {
	s, _ := firstText(doc, categoryKeys)

	return s
}

// Icon is the rendered marker appearance for one resolved colour. DataURI
// holds an inline SVG pin clients can use directly as a marker image.
type Icon struct {
	Color   string `json:"color"`
	DataURI string `json:"dataUri"`
}

const pinSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="25" height="41" viewBox="0 0 25 41">` +
	`<path fill="%s" stroke="#ffffff" stroke-width="1" d="M12.5 0C5.6 0 0 5.6 0 12.5c0 9.4 12.5 28.5 12.5 28.5S25 21.9 25 12.5C25 5.6 19.4 0 12.5 0z"/>` +
	`<circle fill="#ffffff" cx="12.5" cy="12.5" r="5"/></svg>`

func renderIcon(color string) *Icon {
	svg := fmt.Sprintf(pinSVG, color)

	return &Icon{
		Color:   color,
		DataURI: "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
	}
}

// IconCache memoizes rendered icons by resolved colour so that repeated
// documents sharing a colour reuse one icon object. The cache grows
// monotonically and is never evicted; the colour space in practice is the
// category table plus a handful of explicit overrides. Do not reuse it where
// callers control colour cardinality.
type IconCache struct {
	mu           sync.Mutex
	defaultColor string
	icons        map[string]*Icon
}

// NewIconCache builds an icon cache. The default colour is explicit
// configuration here, not a package-wide mutable.
func NewIconCache(defaultColor string) *IconCache {
	if _, ok := NormalizeColor(defaultColor); !ok {
		defaultColor = DefaultColor
	}

	return &IconCache{
		defaultColor: defaultColor,
		icons:        make(map[string]*Icon),
	}
}

// Get returns the icon for a resolved colour, rendering it on first use.
// An unnormalizable colour yields the default icon.
func (c *IconCache) Get(color string) *Icon {
	normalized, ok := NormalizeColor(color)
	if !ok {
		normalized = c.defaultColor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if icon, ok := c.icons[normalized]; ok {
		return icon
	}

	icon := renderIcon(normalized)
	c.icons[normalized] = icon

	return icon
}

// Len reports the number of rendered icons. Used by tests.
func (c *IconCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.icons)
}
