// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package photos abstracts the blob store that holds memory photos. The
// board only needs write-and-forget semantics: upload a blob, get back the
// public URL that goes into the memory document.
package photos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Store uploads photo blobs and returns their public URLs.
type Store interface {
	// Put stores a blob and returns the public URL to reference it by.
	Put(ctx context.Context, originalName, contentType string, r io.Reader) (string, error)

	// Delete removes a previously stored blob by its storage name.
	Delete(ctx context.Context, name string) error
}

// ObjectName derives a collision-free storage name from an upload: a
// timestamp, a random suffix, and the original extension (normalized from
// the content type when the name carries none).
func ObjectName(originalName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = extForContentType(contentType)
	}

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)

	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), hex.EncodeToString(suffix), ext)
}

func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
