// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/memoriapp/memoria/board"
)

const seedBatchSize = 500

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Bulk import raw memory documents",
	Long: `Imports a JSON array of raw memory documents, as exported from the old
hosted database. Documents keep whatever field shapes they arrived with; the
board normalizes them at render time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading seed file: %w", err)
		}

		var docs []map[string]any
		if err := json.Unmarshal(data, &docs); err != nil {
			return fmt.Errorf("unmarshaling seed file: %w", err)
		}

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

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(docs),
				progressbar.OptionSetDescription("Seeding memories"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		placed := 0

		batch := make([]*board.Memory, 0, seedBatchSize)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}

			if err := memories.BulkInsert(batch); err != nil {
				return fmt.Errorf("inserting seed batch: %w", err)
			}

			batch = batch[:0]

			return nil
		}

		for _, doc := range docs {
			m := board.FromDoc(doc)
			if m.Point != nil {
				placed++
			}

			batch = append(batch, m)

			if len(batch) == seedBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}

			if bar != nil {
				_ = bar.Add(1)
			}
		}

		if err := flush(); err != nil {
			return err
		}

		fmt.Printf("✅ Seeded %d memories (%d placeable, %d without a position)\n",
			len(docs), placed, len(docs)-placed)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
