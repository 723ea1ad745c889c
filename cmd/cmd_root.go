// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var options struct {
	DbPath string
}

var rootCmd = &cobra.Command{
	Use:   "memoria",
	Short: "map-based memory board",
	Long: `
memoria runs the backend of a shared memory board: pins with a title, a
story, photos, and a place on the map, kept in a local DuckDB file and
streamed live to every open browser.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&options.DbPath, "db-path", "data", "directory holding the board database")
}
