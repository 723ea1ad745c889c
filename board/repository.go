// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/memoriapp/memoria/normalize"
	"github.com/memoriapp/memoria/spatial"
)

// ErrNotFound reports a memory or comment id that is not in the store.
var ErrNotFound = errors.New("not found")

// MemoryRepository handles persistence of board memories.
type MemoryRepository interface {
	// CreateSchema creates the memories table
	CreateSchema() error

	// Create stores a new memory, assigning its id and timestamps
	Create(m *Memory) error

	// Get returns one memory by id
	Get(id string) (*Memory, error)

	// Update rewrites an existing memory
	Update(m *Memory) error

	// Delete removes a memory and its comments
	Delete(id string) error

	// List returns all memories ordered by creation time
	List() ([]*Memory, error)

	// GetAllSorted returns all memories in stable export order
	GetAllSorted() ([]*Memory, error)

	// BulkInsert inserts a slice of memories into the database
	BulkInsert(memories []*Memory) error

	// Count returns the total number of memories
	Count() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlMemoryRepository struct {
	db *sql.DB
}

// NewMemoryRepository creates a new memory repository.
func NewMemoryRepository(db *sql.DB) MemoryRepository {
	return &sqlMemoryRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlMemoryRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlMemoryRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			description TEXT NOT NULL,
			point POINT_2D,
			category VARCHAR,
			color VARCHAR,
			date VARCHAR,
			images VARCHAR,
			owner_uid VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			doc VARCHAR NOT NULL,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

// nullPoint scans a nullable POINT_2D column.
type nullPoint struct {
	point spatial.Point
	valid bool
}

func (np *nullPoint) Scan(value any) error {
	if value == nil {
		np.valid = false

		return nil
	}

	np.valid = true

	return np.point.Scan(value)
}

func marshalField(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling field: %w", err)
	}

	return string(data), nil
}

func (r *sqlMemoryRepository) Create(m *Memory) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	return r.BulkInsert([]*Memory{m})
}

func (r *sqlMemoryRepository) BulkInsert(memories []*Memory) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO memories(
			id,
			title,
			description,
			point,
			category,
			color,
			date,
			images,
			owner_uid,
			created_at,
			updated_at,
			doc,
			h3_res1,
			h3_res2,
			h3_res3,
			h3_res4,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, m := range memories {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}

		if err = m.computeH3(); err != nil {
			return err
		}

		var lng, lat *float64
		if m.Point != nil {
			lng, lat = &m.Point.Lng, &m.Point.Lat
		}

		images, err := marshalField(m.Images)
		if err != nil {
			return err
		}

		doc, err := marshalField(m.RenderDoc())
		if err != nil {
			return err
		}

		if _, err = stmt.Exec(
			m.ID,
			m.Title,
			m.Description,
			lng,
			lat,
			nullable(m.Category),
			nullable(m.Color),
			nullable(m.Date),
			images,
			nullable(m.OwnerUID),
			m.CreatedAt,
			m.UpdatedAt,
			doc,
			m.H3Res1,
			m.H3Res2,
			m.H3Res3,
			m.H3Res4,
			m.H3Res5,
			m.H3Res6,
			m.H3Res7,
			m.H3Res8,
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func (r *sqlMemoryRepository) Update(m *Memory) error {
	if err := m.computeH3(); err != nil {
		return err
	}

	m.UpdatedAt = time.Now()

	var lng, lat *float64
	if m.Point != nil {
		lng, lat = &m.Point.Lng, &m.Point.Lat
	}

	images, err := marshalField(m.Images)
	if err != nil {
		return err
	}

	doc, err := marshalField(m.RenderDoc())
	if err != nil {
		return err
	}

	result, err := r.db.Exec(`
		UPDATE memories
		SET title = ?, description = ?, point = ST_Point(?, ?),
		    category = ?, color = ?, date = ?, images = ?,
		    updated_at = ?, doc = ?,
			h3_res1 = ?, h3_res2 = ?, h3_res3 = ?, h3_res4 = ?, h3_res5 = ?, h3_res6 = ?, h3_res7 = ?, h3_res8 = ?
		WHERE id = ?
	`,
		m.Title,
		m.Description,
		lng,
		lat,
		nullable(m.Category),
		nullable(m.Color),
		nullable(m.Date),
		images,
		m.UpdatedAt,
		doc,
		m.H3Res1,
		m.H3Res2,
		m.H3Res3,
		m.H3Res4,
		m.H3Res5,
		m.H3Res6,
		m.H3Res7,
		m.H3Res8,
		m.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("memory %s: %w", m.ID, ErrNotFound)
	}

	return nil
}

func (r *sqlMemoryRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM comments WHERE memory_id = ?`, id); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}

	result, err := tx.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}

	if affected == 0 {
		if rErr := tx.Rollback(); rErr != nil {
			return rErr
		}

		return fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

var baseSelect = `
	SELECT id, title, description, point, category, color, date, images,
	       owner_uid, created_at, updated_at, doc,
		   h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
	FROM memories
`

func (r *sqlMemoryRepository) scanMemory(scan func(dest ...any) error) (*Memory, error) {
	m := &Memory{}

	var (
		point                 nullPoint
		category, color, date sql.NullString
		images, ownerUID      sql.NullString
		doc                   string
		h3Cells               [8]sql.NullInt64
	)

	err := scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&point,
		&category,
		&color,
		&date,
		&images,
		&ownerUID,
		&m.CreatedAt,
		&m.UpdatedAt,
		&doc,
		&h3Cells[0],
		&h3Cells[1],
		&h3Cells[2],
		&h3Cells[3],
		&h3Cells[4],
		&h3Cells[5],
		&h3Cells[6],
		&h3Cells[7],
	)
	if err != nil {
		return nil, err
	}

	if point.valid {
		p := point.point
		m.Point = &p
	}

	m.Category = category.String
	m.Color = color.String
	m.Date = date.String
	m.OwnerUID = ownerUID.String

	if images.Valid && images.String != "" {
		var imgs []normalize.Image
		if err := json.Unmarshal([]byte(images.String), &imgs); err != nil {
			return nil, fmt.Errorf("unmarshaling images for %s: %w", m.ID, err)
		}

		m.Images = imgs
	}

	if doc != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(doc), &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling doc for %s: %w", m.ID, err)
		}

		m.Doc = raw
	}

	m.H3Res1 = h3Cells[0].Int64
	m.H3Res2 = h3Cells[1].Int64
	m.H3Res3 = h3Cells[2].Int64
	m.H3Res4 = h3Cells[3].Int64
	m.H3Res5 = h3Cells[4].Int64
	m.H3Res6 = h3Cells[5].Int64
	m.H3Res7 = h3Cells[6].Int64
	m.H3Res8 = h3Cells[7].Int64

	return m, nil
}

func (r *sqlMemoryRepository) Get(id string) (*Memory, error) {
	row := r.db.QueryRow(baseSelect+` WHERE id = ?`, id)

	m, err := r.scanMemory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}

	return m, err
}

func (r *sqlMemoryRepository) list(query string, args []any) ([]*Memory, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []*Memory

	for rows.Next() {
		m, err := r.scanMemory(rows.Scan)
		if err != nil {
			return nil, err
		}

		memories = append(memories, m)
	}

	return memories, rows.Err()
}

func (r *sqlMemoryRepository) List() ([]*Memory, error) {
	return r.list(baseSelect+` ORDER BY created_at DESC, id`, nil)
}

func (r *sqlMemoryRepository) GetAllSorted() ([]*Memory, error) {
	return r.list(baseSelect+` ORDER BY created_at, id`, nil)
}

func (r *sqlMemoryRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM memories",
	).Scan(&count)

	return count, err
}
