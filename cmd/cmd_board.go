// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/memoriapp/memoria/board"
)

const boardFile = "memories.json"

// BoardData is the export format: every memory and comment, sorted so the
// file diffs cleanly under version control.
type BoardData struct {
	Memories []*board.Memory  `json:"memories"`
	Comments []*board.Comment `json:"comments"`
}

func openBoard() (*sql.DB, board.MemoryRepository, board.CommentRepository, error) {
	dbpath := filepath.Join(options.DbPath, databaseFile)

	if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil, fmt.Errorf("database not found at %s - run 'serve' or 'seed' first", dbpath)
	}

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	memories := board.NewMemoryRepository(db)
	if err := memories.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, nil, fmt.Errorf("creating memories schema: %w", err)
	}

	comments := board.NewCommentRepository(db)
	if err := comments.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, nil, fmt.Errorf("creating comments schema: %w", err)
	}

	return db, memories, comments, nil
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Export the board to a file",
	Long:  `Exports all memories and comments from the database to a local JSON file. The file is sorted to minimize diffs when checking into version control.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, memories, comments, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		allMemories, err := memories.GetAllSorted()
		if err != nil {
			return fmt.Errorf("getting memories: %w", err)
		}

		allComments, err := comments.ListAll()
		if err != nil {
			return fmt.Errorf("getting comments: %w", err)
		}

		data, err := json.MarshalIndent(
			BoardData{
				Memories: allMemories,
				Comments: allComments,
			},
			"",
			"  ",
		)
		if err != nil {
			return fmt.Errorf("marshaling board data: %w", err)
		}

		if err := os.WriteFile(boardFile, data, 0o600); err != nil {
			return fmt.Errorf("writing board file: %w", err)
		}

		fmt.Printf("✅ Exported %d memories and %d comments to %s\n",
			len(allMemories), len(allComments), boardFile)

		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import the board from a file",
	Long: `Imports memories and comments from the local JSON file. The import is
skipped when the database holds unsaved work, and only runs when the file
carries more data than the database.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}

		db, err := sql.Open("duckdb", filepath.Join(options.DbPath, databaseFile))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		memories := board.NewMemoryRepository(db)
		if err := memories.CreateSchema(); err != nil {
			return fmt.Errorf("creating memories schema: %w", err)
		}

		comments := board.NewCommentRepository(db)
		if err := comments.CreateSchema(); err != nil {
			return fmt.Errorf("creating comments schema: %w", err)
		}

		return ensureBoardLoaded(db, memories, comments)
	},
}

func ensureBoardLoaded(db *sql.DB, memories board.MemoryRepository, comments board.CommentRepository) error {
	data, err := os.ReadFile(boardFile)
	if err != nil {
		return fmt.Errorf("reading board file: %w", err)
	}

	var boardData BoardData
	if err := json.Unmarshal(data, &boardData); err != nil {
		return fmt.Errorf("unmarshaling board data: %w", err)
	}

	targetMemCount := len(boardData.Memories)
	targetComCount := len(boardData.Comments)

	// Check DB state
	var (
		dbMemCount int
		dbComCount int
	)

	query := `
		SELECT
			(SELECT count(*) FROM memories) as mem_count,
			(SELECT count(*) FROM comments) as com_count
	`
	if err := db.QueryRow(query).Scan(&dbMemCount, &dbComCount); err != nil {
		return fmt.Errorf("checking db state: %w", err)
	}

	// Safety check: do not overwrite if the DB has MORE data than the file.
	// This likely means there are local pins or comments that haven't been
	// exported yet.
	isUnsafe := false

	if dbMemCount > targetMemCount {
		log.Printf("⚠️  Local memories (%d) exceed file counts (%d). Unsaved work detected.", dbMemCount, targetMemCount)

		isUnsafe = true
	}

	if dbComCount > targetComCount {
		log.Printf("⚠️  Local comments (%d) exceed file counts (%d). Unsaved work detected.", dbComCount, targetComCount)

		isUnsafe = true
	}

	if isUnsafe {
		log.Println("🛑 Skipping reload to prevent data loss. Run 'store' to save local changes first.")

		return nil
	}

	// Freshness check: reload only if the file has MORE data than the DB.
	needsReload := false

	if targetMemCount > dbMemCount {
		log.Printf("ℹ️  New memories available (%d > %d). Reloading...", targetMemCount, dbMemCount)

		needsReload = true
	} else if targetComCount > dbComCount {
		log.Printf("ℹ️  New comments available (%d > %d). Reloading...", targetComCount, dbComCount)

		needsReload = true
	}

	if !needsReload {
		log.Println("✅ Board is up to date. Skipping import.")

		return nil
	}

	log.Println("♻️  Reloading board...")

	// Clear tables
	if _, err := db.Exec("DELETE FROM comments"); err != nil {
		return fmt.Errorf("clearing comments: %w", err)
	}

	if _, err := db.Exec("DELETE FROM memories"); err != nil {
		return fmt.Errorf("clearing memories: %w", err)
	}

	if err := memories.BulkInsert(boardData.Memories); err != nil {
		return fmt.Errorf("inserting memories: %w", err)
	}

	log.Printf("✅ Imported %d memories from %s\n", len(boardData.Memories), boardFile)

	if err := comments.BulkInsert(boardData.Comments); err != nil {
		return fmt.Errorf("inserting comments: %w", err)
	}

	log.Printf("✅ Imported %d comments from %s\n", len(boardData.Comments), boardFile)

	return nil
}

func init() {
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(loadCmd)
}
