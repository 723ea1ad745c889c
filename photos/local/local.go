// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package local stores photos on the local filesystem, served by the board
// server under a static route.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/memoriapp/memoria/photos"
)

// Store writes photo blobs to a directory and addresses them under baseURL.
type Store struct {
	dir     string
	baseURL string
}

// New creates the directory if needed. baseURL is the public prefix the
// directory is served under, e.g. "/photos".
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}

	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the backing directory, for registering the static route.
func (s *Store) Dir() string {
	return s.dir
}

// Put stores one photo and returns its public URL.
func (s *Store) Put(_ context.Context, originalName, contentType string, r io.Reader) (string, error) {
	name := photos.ObjectName(originalName, contentType)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating photo file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)

		return "", fmt.Errorf("writing photo file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)

		return "", fmt.Errorf("closing photo file: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Delete removes a stored photo by name. Traversal outside the photo
// directory is rejected.
func (s *Store) Delete(_ context.Context, name string) error {
	path, err := s.safeJoin(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting photo file: %w", err)
	}

	return nil
}

func (s *Store) safeJoin(name string) (string, error) {
	absBase, err := filepath.Abs(s.dir)
	if err != nil {
		return "", fmt.Errorf("invalid photo directory: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("invalid photo name: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("photo name escapes the photo directory: %s", name)
	}

	return absPath, nil
}
