// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/memoriapp/memoria/normalize"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxCategoryLen    = 100
	maxCommentLen     = 2000
	maxAuthorLen      = 100
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validateMemory verifies that a submitted memory has acceptable data. A
// malformed colour is cleared rather than rejected; everything else is a
// submission error surfaced to the user.
func validateMemory(m *Memory) error {
	if m == nil {
		return errors.New("memory can't be nil")
	}

	if strings.TrimSpace(m.Title) == "" {
		return errors.New("title can't be empty")
	}

	if len(m.Title) > maxTitleLen {
		return fmt.Errorf("title too long (maximum %d characters)", maxTitleLen)
	}

	if len(m.Description) > maxDescriptionLen {
		return fmt.Errorf("description too long (maximum %d characters)", maxDescriptionLen)
	}

	if m.Point != nil && !m.Point.Valid() {
		return fmt.Errorf("coordinates out of bounds: %f, %f", m.Point.Lat, m.Point.Lng)
	}

	if len(m.Category) > maxCategoryLen {
		return fmt.Errorf("category too long (maximum %d characters)", maxCategoryLen)
	}

	if m.Color != "" {
		if c, ok := normalize.NormalizeColor(m.Color); ok {
			m.Color = c
		} else {
			m.Color = ""
		}
	}

	if m.Date != "" && !dateRegex.MatchString(m.Date) {
		return fmt.Errorf("date must be YYYY-MM-DD (received: %s)", m.Date)
	}

	for _, img := range m.Images {
		if strings.TrimSpace(img.Src) == "" {
			return errors.New("image entries must carry a source URL")
		}
	}

	return nil
}

// validateComment verifies that a submitted comment has acceptable data.
func validateComment(c *Comment) error {
	if c == nil {
		return errors.New("comment can't be nil")
	}

	if strings.TrimSpace(c.Text) == "" {
		return errors.New("text can't be empty")
	}

	if len(c.Text) > maxCommentLen {
		return fmt.Errorf("text too long (maximum %d characters)", maxCommentLen)
	}

	if len(c.Author) > maxAuthorLen {
		return fmt.Errorf("author too long (maximum %d characters)", maxAuthorLen)
	}

	return nil
}

// stripMarkup reduces user-submitted text to its plain-text content. Old
// clients allowed pasting rich text into descriptions.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return strings.TrimSpace(s)
	}

	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() != 0 {
					sb.WriteByte(' ')
				}

				sb.WriteString(text)
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return sb.String()
}

// sanitizeMemory normalizes a submitted memory in place before validation.
func sanitizeMemory(m *Memory) {
	m.Title = stripMarkup(m.Title)
	m.Description = stripMarkup(m.Description)
	m.Category = strings.TrimSpace(m.Category)
	m.Date = strings.TrimSpace(m.Date)
}
