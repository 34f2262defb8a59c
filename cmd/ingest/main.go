// Command ingest loads the retail sales CSV into the serving store. It is the
// offline ETL collaborator: run it before starting the server, never
// concurrently with it writing.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"salesdash/backend/internal/config"
	"salesdash/backend/internal/ingest"
	"salesdash/backend/internal/logging"
	"salesdash/backend/internal/store"
	pgstore "salesdash/backend/internal/store/postgres"
	litestore "salesdash/backend/internal/store/sqlite"
)

var (
	csvPath     string
	databaseURL string
	sqlitePath  string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the retail sales CSV into the dashboard's row store",
	Long: `ingest reads the denormalized sales CSV export, derives discount_amount
from total_amount and discount_percentage, and replaces the contents of the
configured store (PostgreSQL via --database-url, or SQLite via --sqlite).`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cfg := config.Load()

	rootCmd.Flags().StringVar(&csvPath, "csv", "data/retail_sales.csv", "path to the sales CSV export")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string (defaults to DATABASE_URL)")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", cfg.SQLitePath, "SQLite database path (defaults to SQLITE_PATH)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

func run(cmd *cobra.Command, _ []string) error {
	logging.Init(logLevel, true)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	var repo store.Repository
	var closeFn func() error

	switch {
	case databaseURL != "":
		pg, err := pgstore.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		repo = pg
		closeFn = pg.Close
	case sqlitePath != "":
		lite, err := litestore.New(ctx, sqlitePath)
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", sqlitePath, err)
		}
		repo = lite
		closeFn = lite.Close
	default:
		return errors.New("no target store: set --database-url or --sqlite")
	}
	defer func() {
		if err := closeFn(); err != nil {
			logging.Error().Err(err).Msg("close store")
		}
	}()

	startedAt := time.Now()
	count, err := ingest.LoadFile(ctx, repo, csvPath)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", csvPath, err)
	}

	logging.Info().
		Int("rows", count).
		Str("csv", csvPath).
		Dur("elapsed", time.Since(startedAt)).
		Msg("ingestion completed")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
