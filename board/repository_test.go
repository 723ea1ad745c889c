// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriapp/memoria/normalize"
	"github.com/memoriapp/memoria/spatial"
)

func setupTestDB(t *testing.T) (*sql.DB, MemoryRepository, CommentRepository) {
	t.Helper()

	db, err := sql.Open("duckdb", "") // In-memory database
	require.NoError(t, err)

	memories := NewMemoryRepository(db)
	require.NoError(t, memories.CreateSchema())

	comments := NewCommentRepository(db)
	require.NoError(t, comments.CreateSchema())

	return db, memories, comments
}

func testMemory() *Memory {
	return &Memory{
		Title:       "Picnic at the lake",
		Description: "First warm day of the year",
		Point:       &spatial.Point{Lat: 48.8566, Lng: 2.3522},
		Category:    "friends",
		Color:       "#ff0000",
		Date:        "2019-06-21",
		Images:      []normalize.Image{{Src: "a.jpg"}, {Src: "b.jpg", Caption: "Sunset"}},
		OwnerUID:    "uid-1",
	}
}

func TestCreateSchema(t *testing.T) {
	db, _, _ := setupTestDB(t)
	defer db.Close()

	var tableName string

	err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = 'memories'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "memories", tableName)
}

func TestCreateAndGet(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	m := testMemory()
	require.NoError(t, memories.Create(m))
	require.NotEmpty(t, m.ID, "create must assign an id")
	require.False(t, m.CreatedAt.IsZero())

	got, err := memories.Get(m.ID)
	require.NoError(t, err)

	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Description, got.Description)
	assert.Equal(t, m.Category, got.Category)
	assert.Equal(t, m.Color, got.Color)
	assert.Equal(t, m.Date, got.Date)
	assert.Equal(t, m.OwnerUID, got.OwnerUID)
	assert.Equal(t, m.Images, got.Images)

	require.NotNil(t, got.Point)
	assert.InDelta(t, 48.8566, got.Point.Lat, 1e-6)
	assert.InDelta(t, 2.3522, got.Point.Lng, 1e-6)

	assert.NotZero(t, got.H3Res5, "h3 cells must be computed on save")
	assert.NotEmpty(t, got.Doc, "the stored document must round-trip")
}

func TestGetNotFound(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	_, err := memories.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWithoutPosition(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	m := &Memory{Title: "Lost pin"}
	require.NoError(t, memories.Create(m))

	got, err := memories.Get(m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Point, "a memory without coordinates stays unplaced")
	assert.Zero(t, got.H3Res1)
}

func TestUpdate(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	m := testMemory()
	require.NoError(t, memories.Create(m))

	m.Title = "Picnic, revisited"
	m.Point = &spatial.Point{Lat: -34.9011, Lng: -56.1645}
	m.Color = ""
	require.NoError(t, memories.Update(m))

	got, err := memories.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Picnic, revisited", got.Title)
	assert.Empty(t, got.Color)
	assert.InDelta(t, -34.9011, got.Point.Lat, 1e-6)

	missing := testMemory()
	missing.ID = "ghost"
	assert.ErrorIs(t, memories.Update(missing), ErrNotFound)
}

func TestDeleteCascadesComments(t *testing.T) {
	db, memories, comments := setupTestDB(t)
	defer db.Close()

	m := testMemory()
	require.NoError(t, memories.Create(m))

	c := &Comment{MemoryID: m.ID, Author: "ada", AuthorUID: "uid-2", Text: "lovely spot"}
	require.NoError(t, comments.Add(c))
	require.NotZero(t, c.ID)

	require.NoError(t, memories.Delete(m.ID))

	_, err := memories.Get(m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	thread, err := comments.ListByMemory(m.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)

	assert.ErrorIs(t, memories.Delete(m.ID), ErrNotFound)
}

func TestListOrder(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	first := &Memory{Title: "first"}
	second := &Memory{Title: "second"}
	require.NoError(t, memories.Create(first))
	require.NoError(t, memories.Create(second))

	all, err := memories.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title, "List returns newest first")

	exported, err := memories.GetAllSorted()
	require.NoError(t, err)
	require.Len(t, exported, 2)
	assert.Equal(t, "first", exported[0].Title, "export order is oldest first")

	count, err := memories.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBulkInsertHeterogeneousDocs(t *testing.T) {
	db, memories, _ := setupTestDB(t)
	defer db.Close()

	docs := []map[string]any{
		{"name": "Old writer pin", "lat": "48.8", "lon": "2.3", "image": "a.jpg"},
		{"title": "No position", "text": "still listed"},
	}

	batch := make([]*Memory, 0, len(docs))
	for _, doc := range docs {
		batch = append(batch, FromDoc(doc))
	}

	require.NoError(t, memories.BulkInsert(batch))

	all, err := memories.GetAllSorted()
	require.NoError(t, err)
	require.Len(t, all, 2)

	var placed, unplaced *Memory

	for _, m := range all {
		if m.Point != nil {
			placed = m
		} else {
			unplaced = m
		}
	}

	require.NotNil(t, placed)
	require.NotNil(t, unplaced)

	// The raw shape survives storage so rendering keeps normalizing it.
	assert.Equal(t, "Old writer pin", placed.Doc["name"])
	assert.Equal(t, "Old writer pin", placed.Title)
	assert.InDelta(t, 48.8, placed.Point.Lat, 1e-6)

	assert.Equal(t, "No position", unplaced.Title)
	assert.Equal(t, "still listed", unplaced.Description)

	// Seeded rows must carry real timestamps, not the zero time, so
	// created_at ordering stays meaningful.
	for _, m := range all {
		assert.False(t, m.CreatedAt.IsZero(), "seeded memory %s has no created_at", m.ID)
		assert.False(t, m.UpdatedAt.IsZero(), "seeded memory %s has no updated_at", m.ID)
	}
}

func TestCommentThread(t *testing.T) {
	db, memories, comments := setupTestDB(t)
	defer db.Close()

	m := testMemory()
	require.NoError(t, memories.Create(m))

	first := &Comment{MemoryID: m.ID, Author: "ada", AuthorUID: "uid-2", Text: "first"}
	second := &Comment{MemoryID: m.ID, Author: "bob", AuthorUID: "uid-3", Text: "second"}
	require.NoError(t, comments.Add(first))
	require.NoError(t, comments.Add(second))

	thread, err := comments.ListByMemory(m.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "first", thread[0].Text, "threads are ordered by creation time")

	counts, err := comments.CountByMemory()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[m.ID])

	got, err := comments.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Author)

	require.NoError(t, comments.Delete(first.ID))
	assert.ErrorIs(t, comments.Delete(first.ID), ErrNotFound)

	thread, err = comments.ListByMemory(m.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "second", thread[0].Text)
}
