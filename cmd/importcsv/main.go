package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"yamdb/internal/config"
	"yamdb/internal/db"
	"yamdb/internal/importer"
)

func main() {
	dir := flag.String("dir", "static/data", "directory holding the CSV exports")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database", "driver", cfg.DBDriver)

	// Make sure the schema is up to date before loading rows.
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	stats, err := importer.New(gormDB, logger).Run(context.Background(), *dir)
	if err != nil {
		logger.Error("import failed", "dir", *dir, "error", err)
		os.Exit(1)
	}

	created, skipped := 0, 0
	for _, s := range stats {
		created += s.Created
		skipped += s.Skipped
	}
	logger.Info("import completed", "files", len(stats), "created", created, "skipped", skipped)
}
