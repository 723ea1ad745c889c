// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/memoriapp/memoria/board"
	"github.com/memoriapp/memoria/photos"
	"github.com/memoriapp/memoria/photos/gcs"
	"github.com/memoriapp/memoria/photos/local"
)

const databaseFile = "memoria.duckdb"

var serveOptions struct {
	Listen    string
	PhotosDir string
	GCSBucket string
	GCSPrefix string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the memory board server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		ctx := cmd.Context()

		store, photosDir, err := buildPhotoStore(ctx)
		if err != nil {
			return err
		}

		auth := board.NewAuth(
			os.Getenv("MEMORIA_SESSION_SECRET"),
			os.Getenv("MEMORIA_BOARD_SECRET"),
			os.Getenv("MEMORIA_OWNER_UID"),
		)

		mapsKey := board.MapsAPIKey(ctx)

		var geocoder board.Geocoder
		if mapsKey != "" {
			geocoder = board.NewGoogleMapsGeocoder(mapsKey)
		}

		server := board.NewServer(memories, comments, store, auth, geocoder, board.ServerConfig{
			Listen:     serveOptions.Listen,
			MapsAPIKey: mapsKey,
			PhotosDir:  photosDir,
		})

		fmt.Println("🗺️  Memory board server starting...")
		fmt.Printf("📍 Open http://%s in your browser\n", serveOptions.Listen)

		return server.Run()
	},
}

// buildPhotoStore picks GCS when a bucket is configured, the local directory
// otherwise. The second return value is the directory to serve statically,
// empty for GCS.
func buildPhotoStore(ctx context.Context) (photos.Store, string, error) {
	if serveOptions.GCSBucket != "" {
		store, err := gcs.New(ctx, serveOptions.GCSBucket, serveOptions.GCSPrefix)
		if err != nil {
			return nil, "", fmt.Errorf("creating gcs photo store: %w", err)
		}

		return store, "", nil
	}

	store, err := local.New(serveOptions.PhotosDir, "/photos")
	if err != nil {
		return nil, "", fmt.Errorf("creating local photo store: %w", err)
	}

	return store, store.Dir(), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Listen, "listen", "localhost:8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveOptions.PhotosDir, "photos-dir", "data/photos", "directory for locally stored photos")
	serveCmd.Flags().StringVar(&serveOptions.GCSBucket, "gcs-bucket", "", "store photos in this GCS bucket instead of the local disk")
	serveCmd.Flags().StringVar(&serveOptions.GCSPrefix, "gcs-prefix", "memoria", "object name prefix inside the GCS bucket")
}
