package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-campaigns/internal/importer"
	"github.com/xenking/kart-campaigns/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		pattern     string
		cfg         importer.Config
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pattern, "files", "data/campaigns/*.jsonl.gz", "glob of campaign files, applied in lexical order")
	flag.UintVar(&cfg.ExpectedPerFile, "expected", 1_000_000, "expected campaigns per file, sizes the bloom filters")
	flag.Float64Var(&cfg.FalsePositiveRate, "fpr", 0.001, "bloom filter false positive rate")
	flag.IntVar(&cfg.BatchSize, "batch", 500, "campaigns per upsert transaction")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		files, err := filepath.Glob(pattern)
		if err != nil {
			return errors.Wrap(err, "expand files pattern")
		}
		if len(files) == 0 {
			return errors.Errorf("no files match %q", pattern)
		}
		sort.Strings(files)

		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		lg.Info("Importing campaigns", zap.Strings("files", files))
		ctx = zctx.Base(ctx, lg)
		stats, err := importer.New(postgres.NewCampaignRepository(pool), cfg).Run(ctx, files)
		lg.Info("Import finished",
			zap.Int64("lines", stats.Lines),
			zap.Int64("written", stats.Written),
			zap.Int64("superseded", stats.Superseded),
			zap.Int64("contested", stats.Contested),
			zap.Int64("unknown_types", stats.UnknownTypes),
		)
		return err
	})
}
