// Command importer converts the merged order-line CSV into a SQLite database
// the dashboard can load directly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	csvPath := flag.String("csv", cfg.Dataset.Path, "merged order-line CSV to import")
	dbPath := flag.String("db", "olist.db", "SQLite database to write")
	table := flag.String("table", cfg.Dataset.Table, "destination table, replaced if present")
	skipMalformed := flag.Bool("skip-malformed", cfg.Dataset.SkipMalformed, "drop rows that fail to parse")
	flag.Parse()

	logger := observability.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	n, err := dataset.ImportCSV(ctx, *csvPath, *dbPath, dataset.Options{
		Table:         *table,
		SkipMalformed: *skipMalformed,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("import failed", "csv", *csvPath, "db", *dbPath, "error", err)
		os.Exit(1)
	}

	logger.Info("import complete",
		"csv", *csvPath,
		"db", *dbPath,
		"table", *table,
		"records", n,
		"duration", time.Since(start))
}
