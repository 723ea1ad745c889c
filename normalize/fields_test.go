// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"title field", map[string]any{"title": "Summer 2019"}, "Summer 2019"},
		{"name fallback", map[string]any{"name": "Picnic"}, "Picnic"},
		{"title wins over name", map[string]any{"title": "A", "name": "B"}, "A"},
		{"capitalized variant", map[string]any{"Title": "Old writer"}, "Old writer"},
		{"label variant", map[string]any{"label": "Tagged spot"}, "Tagged spot"},
		{"blank text is absent", map[string]any{"title": "   "}, DefaultTitle},
		{"non-string is absent", map[string]any{"title": 42}, DefaultTitle},
		{"empty document", map[string]any{}, DefaultTitle},
		{"nil document", nil, DefaultTitle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title(tc.doc); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"description field", map[string]any{"description": "We were here"}, "We were here"},
		{"text fallback", map[string]any{"text": "short note"}, "short note"},
		{"notes fallback", map[string]any{"notes": "from the old app"}, "from the old app"},
		{"absent is empty", map[string]any{"title": "x"}, ""},
		{"nil document", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Description(tc.doc); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestImages(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want []Image
	}{
		{
			name: "mixed list of strings and entries",
			doc: map[string]any{"images": []any{
				"a.jpg",
				map[string]any{"url": "b.jpg", "caption": "Sunset"},
			}},
			want: []Image{{Src: "a.jpg"}, {Src: "b.jpg", Caption: "Sunset"}},
		},
		{
			name: "single bare string",
			doc:  map[string]any{"images": "c.jpg"},
			want: []Image{{Src: "c.jpg"}},
		},
		{
			name: "single structured entry",
			doc:  map[string]any{"image": map[string]any{"src": "d.jpg", "alt": "Old pier"}},
			want: []Image{{Src: "d.jpg", Caption: "Old pier"}},
		},
		{
			name: "string slice",
			doc:  map[string]any{"photos": []string{"e.jpg", "f.jpg"}},
			want: []Image{{Src: "e.jpg"}, {Src: "f.jpg"}},
		},
		{
			name: "entries without source are dropped",
			doc: map[string]any{"images": []any{
				map[string]any{"caption": "no src"},
				"",
				map[string]any{"downloadURL": "g.jpg"},
			}},
			want: []Image{{Src: "g.jpg"}},
		},
		{
			name: "src candidates in order",
			doc:  map[string]any{"images": []any{map[string]any{"href": "h.jpg"}}},
			want: []Image{{Src: "h.jpg"}},
		},
		{
			name: "unrecognized shape",
			doc:  map[string]any{"images": 7},
			want: []Image{},
		},
		{
			name: "absent field",
			doc:  map[string]any{"title": "no photos"},
			want: []Image{},
		},
		{
			name: "nil document",
			doc:  nil,
			want: []Image{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Images(tc.doc)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("Images() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImagesPreservesOrder(t *testing.T) {
	doc := map[string]any{"images": []any{"1.jpg", "2.jpg", "3.jpg"}}

	got := Images(doc)

	want := []Image{{Src: "1.jpg"}, {Src: "2.jpg"}, {Src: "3.jpg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order not preserved (-want +got):\n%s", diff)
	}
}
