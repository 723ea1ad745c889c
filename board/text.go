// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText normalizes a string by removing accents, lowercasing, and
// trimming spaces. Board titles arrive in several languages; search should
// not care about diacritics.
func foldText(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// matchesQuery reports whether a memory matches a folded search query over
// its title, description, and category.
func matchesQuery(m *Memory, query string) bool {
	if query == "" {
		return true
	}

	doc := m.RenderDoc()

	for _, field := range []string{
		foldText(m.Title),
		foldText(m.Description),
		foldText(m.Category),
	} {
		if strings.Contains(field, query) {
			return true
		}
	}

	// Historic rows may hold their display text outside the typed columns.
	if title, ok := doc["name"].(string); ok && strings.Contains(foldText(title), query) {
		return true
	}

	return false
}
