// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CommentRepository handles persistence of memory comment threads.
type CommentRepository interface {
	// CreateSchema creates the comments table
	CreateSchema() error

	// Add appends a comment to a memory's thread, assigning its id
	Add(c *Comment) error

	// Get returns one comment by id
	Get(id int) (*Comment, error)

	// ListByMemory returns a memory's thread ordered by creation time
	ListByMemory(memoryID string) ([]*Comment, error)

	// ListAll returns every comment, grouped by memory in export order
	ListAll() ([]*Comment, error)

	// BulkInsert inserts a slice of comments, preserving their timestamps
	BulkInsert(comments []*Comment) error

	// Delete removes one comment
	Delete(id int) error

	// CountByMemory returns the comment count per memory id
	CountByMemory() (map[string]int, error)
}

type sqlCommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &sqlCommentRepository{db: db}
}

func (r *sqlCommentRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS comments_seq START 1;

		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY DEFAULT nextval('comments_seq'),
			memory_id VARCHAR NOT NULL,
			author VARCHAR NOT NULL,
			author_uid VARCHAR NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlCommentRepository) Add(c *Comment) error {
	c.CreatedAt = time.Now()

	return r.db.QueryRow(`
		INSERT INTO comments(memory_id, author, author_uid, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`,
		c.MemoryID,
		c.Author,
		c.AuthorUID,
		c.Text,
		c.CreatedAt,
	).Scan(&c.ID)
}

func (r *sqlCommentRepository) BulkInsert(comments []*Comment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO comments(memory_id, author, author_uid, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, c := range comments {
		if _, err := stmt.Exec(
			c.MemoryID,
			c.Author,
			c.AuthorUID,
			c.Text,
			c.CreatedAt,
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

const commentSelect = `
	SELECT id, memory_id, author, author_uid, text, created_at
	FROM comments
`

func (r *sqlCommentRepository) Get(id int) (*Comment, error) {
	c := &Comment{}

	err := r.db.QueryRow(commentSelect+` WHERE id = ?`, id).Scan(
		&c.ID,
		&c.MemoryID,
		&c.Author,
		&c.AuthorUID,
		&c.Text,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, err
	}

	return c, nil
}

func (r *sqlCommentRepository) list(query string, args []any) ([]*Comment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment

	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(
			&c.ID,
			&c.MemoryID,
			&c.Author,
			&c.AuthorUID,
			&c.Text,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}

		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (r *sqlCommentRepository) ListByMemory(memoryID string) ([]*Comment, error) {
	return r.list(commentSelect+` WHERE memory_id = ? ORDER BY created_at, id`, []any{memoryID})
}

func (r *sqlCommentRepository) ListAll() ([]*Comment, error) {
	return r.list(commentSelect+` ORDER BY memory_id, created_at, id`, nil)
}

func (r *sqlCommentRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *sqlCommentRepository) CountByMemory() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT memory_id, COUNT(*)
		FROM comments
		GROUP BY memory_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var memoryID string

		var count int
		if err := rows.Scan(&memoryID, &count); err != nil {
			return nil, err
		}

		counts[memoryID] = count
	}

	return counts, rows.Err()
}
