// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package normalize

import "strings"

// DefaultTitle is substituted when a document carries no usable title.
const DefaultTitle = "Untitled memory"

var (
	titleKeys        = []string{"title", "name", "Title", "label"}
	descriptionKeys  = []string{"description", "text", "Description", "notes"}
	imageFieldKeys   = []string{"images", "photos", "image", "photo"}
	imageSrcKeys     = []string{"src", "url", "href", "downloadURL"}
	imageCaptionKeys = []string{"caption", "alt"}
)

// Image is one entry of a memory's photo gallery.
type Image struct {
	Src     string `json:"src"`
	Caption string `json:"caption"`
}

// Title resolves the display title of a document, falling back to
// DefaultTitle when no candidate field holds text.
func Title(doc map[string]any) string {
	if s, ok := firstText(doc, titleKeys); ok {
		return s
	}

	return DefaultTitle
}

// Description resolves the display description of a document, empty when
// absent.
func Description(doc map[string]any) string {
	s, _ := firstText(doc, descriptionKeys)

	return s
}

// Images resolves the ordered photo gallery of a document. The image-bearing
// field has appeared over time as a list of URLs, a list of structured
// entries, a single URL, or a single structured entry; all four shapes
// normalize to the same slice. Entries without a source are dropped.
func Images(doc map[string]any) []Image {
	if doc == nil {
		return nil
	}

	var raw any

	for _, key := range imageFieldKeys {
		if v, present := doc[key]; present && v != nil {
			raw = v

			break
		}
	}

	switch v := raw.(type) {
	case []any:
		images := make([]Image, 0, len(v))

		for _, entry := range v {
			if img, ok := imageEntry(entry); ok {
				images = append(images, img)
			}
		}

		return images
	case []string:
		images := make([]Image, 0, len(v))

		for _, entry := range v {
			if img, ok := imageEntry(entry); ok {
				images = append(images, img)
			}
		}

		return images
	case string, map[string]any:
		if img, ok := imageEntry(v); ok {
			return []Image{img}
		}

		return nil
	default:
		return nil
	}
}

func imageEntry(v any) (Image, bool) {
	switch e := v.(type) {
	case string:
		src := strings.TrimSpace(e)
		if src == "" {
			return Image{}, false
		}

		return Image{Src: src}, true
	case map[string]any:
		src, _ := firstText(e, imageSrcKeys)
		if src == "" {
			return Image{}, false
		}

		caption, _ := firstText(e, imageCaptionKeys)

		return Image{Src: src, Caption: caption}, true
	default:
		return Image{}, false
	}
}

// firstText returns the first candidate field that holds non-blank text.
func firstText(doc map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		v, present := doc[key]
		if !present {
			continue
		}

		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}

	return "", false
}
