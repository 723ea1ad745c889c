// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package gcs stores photos in a public Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"

	storage "google.golang.org/api/storage/v1"

	"github.com/memoriapp/memoria/photos"
)

const publicURLPrefix = "https://storage.googleapis.com"

// Store uploads photo blobs to one bucket using Application Default
// Credentials. Objects inherit the bucket's public-read policy.
type Store struct {
	service *storage.Service
	bucket  string
	prefix  string
}

// New creates the GCS-backed store. prefix namespaces the board's objects
// inside a shared bucket; it may be empty.
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	service, err := storage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}

	return &Store{service: service, bucket: bucket, prefix: prefix}, nil
}

func (s *Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}

	return s.prefix + "/" + name
}

// Put uploads one photo and returns its public URL.
func (s *Store) Put(ctx context.Context, originalName, contentType string, r io.Reader) (string, error) {
	name := s.objectName(photos.ObjectName(originalName, contentType))

	object := &storage.Object{
		Name:        name,
		ContentType: contentType,
	}

	if _, err := s.service.Objects.Insert(s.bucket, object).
		Media(r).
		Context(ctx).
		Do(); err != nil {
		return "", fmt.Errorf("uploading photo to gs://%s/%s: %w", s.bucket, name, err)
	}

	return fmt.Sprintf("%s/%s/%s", publicURLPrefix, s.bucket, name), nil
}

// Delete removes an uploaded photo by its storage name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.service.Objects.Delete(s.bucket, s.objectName(name)).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("deleting photo gs://%s/%s: %w", s.bucket, name, err)
	}

	return nil
}
