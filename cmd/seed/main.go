package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/ingest"
	"github.com/hirase-art/inventory-risk/internal/pipeline"
	"github.com/hirase-art/inventory-risk/internal/repository"
	"github.com/hirase-art/inventory-risk/internal/repository/postgres"
	"github.com/hirase-art/inventory-risk/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	raw, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := raw.PingContext(c.Context); err != nil {
		raw.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := postgres.Wrap(sqlx.NewDb(raw, "pgx"), c.Int64("max-concurrent"))
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey{}).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database is not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load master, shipment, stock and purchase order files into the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Flags:  []cli.Flag{newDBURLFlag(), maxConcurrentFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			kindCommand(ingest.KindMaster, "Seed product or set master data",
				&cli.StringFlag{
					Name:  "unit",
					Usage: "Master table to load: pack or set",
					Value: string(domain.UnitPack),
				},
			),
			kindCommand(ingest.KindShipments, "Seed raw shipment lines",
				&cli.BoolFlag{
					Name:  "replace",
					Usage: "Delete existing shipments before loading",
				},
			),
			kindCommand(ingest.KindStock, "Replace the stock snapshot"),
			kindCommand(ingest.KindInbound, "Seed purchase order lines"),
			{
				Name:  "all",
				Usage: "Migrate, then seed every kind from <data-dir>/<kind>/ (set masters from <data-dir>/set_master/)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					maxConcurrentFlag(),
					timezoneFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory with one sub-directory per kind",
						Value:   "./data/seeds",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runAll,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func maxConcurrentFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:    "max-concurrent",
		Usage:   "Maximum concurrent database operations",
		Value:   4,
		EnvVars: []string{"DB_MAX_CONCURRENT"},
	}
}

func timezoneFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "timezone",
		Usage:   "Location dates in the files are read in",
		Value:   "Asia/Tokyo",
		EnvVars: []string{"ANALYSIS_TIMEZONE"},
	}
}

func kindCommand(kind ingest.Kind, usage string, extra ...cli.Flag) *cli.Command {
	flags := []cli.Flag{newDBURLFlag(), maxConcurrentFlag(), timezoneFlag()}
	flags = append(flags, sourceFlags()...)
	flags = append(flags, extra...)

	return &cli.Command{
		Name:   string(kind),
		Usage:  usage,
		Flags:  flags,
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			src, err := newSource(c, string(kind))
			if err != nil {
				return err
			}
			paths, err := src.Fetch(c.Context)
			if err != nil {
				return err
			}

			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			if kind == ingest.KindMaster {
				unit, ok := domain.ParseUnit(c.String("unit"))
				if !ok {
					return fmt.Errorf("invalid unit %q", c.String("unit"))
				}
				opts.Unit = unit
			}
			opts.Replace = c.Bool("replace")

			db, err := dbFrom(c)
			if err != nil {
				return err
			}
			return seedFiles(c.Context, repository.NewLoader(db), kind, paths, opts)
		},
	}
}

func loadOptions(c *cli.Context) (ingest.LoadOptions, error) {
	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return ingest.LoadOptions{}, fmt.Errorf("invalid timezone %q: %w", c.String("timezone"), err)
	}
	return ingest.LoadOptions{Location: loc}, nil
}

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(c.Context, db.DB.DB); err != nil {
		return err
	}

	version, err := postgres.MigrationVersion(c.Context, db.DB.DB)
	if err != nil {
		return err
	}
	logger.Log.Info().Int64("version", version).Msg("database schema is up to date")
	return nil
}

// runAll loads <data-dir>/master, set_master, shipments, stock and inbound
// in that order. Missing directories are skipped.
func runAll(c *cli.Context) error {
	if err := runMigrate(c); err != nil {
		return err
	}

	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	loader := repository.NewLoader(db)

	base, err := loadOptions(c)
	if err != nil {
		return err
	}

	steps := []struct {
		dir  string
		kind ingest.Kind
		unit domain.Unit
	}{
		{"master", ingest.KindMaster, domain.UnitPack},
		{"set_master", ingest.KindMaster, domain.UnitSet},
		{"shipments", ingest.KindShipments, ""},
		{"stock", ingest.KindStock, ""},
		{"inbound", ingest.KindInbound, ""},
	}

	dataDir := c.String("data-dir")
	for _, step := range steps {
		dir := filepath.Join(dataDir, step.dir)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			logger.Log.Info().Str("dir", dir).Msg("skipping missing seed directory")
			continue
		}

		paths, err := (&localSource{path: dir}).Fetch(c.Context)
		if err != nil {
			return err
		}

		opts := base
		opts.Unit = step.unit
		opts.Replace = step.kind == ingest.KindShipments
		if err := seedFiles(c.Context, loader, step.kind, paths, opts); err != nil {
			return fmt.Errorf("error seeding %s: %w", step.dir, err)
		}
	}

	logger.Log.Info().Msg("database seeding completed successfully")
	return nil
}

// seedFiles reads the files concurrently, then loads them in order.
// Replace applies to the first file only, so several shipment files append
// to one fresh table.
func seedFiles(ctx context.Context, store ingest.Store, kind ingest.Kind, paths []string, opts ingest.LoadOptions) error {
	if len(paths) == 0 {
		return fmt.Errorf("no CSV or XLSX files found for %s", kind)
	}

	reader := pipeline.NewWorker(pipeline.DefaultConfig(string(kind)), ingest.ReadFile)
	tables, metrics, err := reader.ReadAll(ctx, paths)
	if err != nil {
		return err
	}
	logger.Log.Debug().
		Str("kind", string(kind)).
		Int("files", metrics.FilesProcessed).
		Dur("elapsed", metrics.Elapsed).
		Msg("read seed files")

	for i, table := range tables {
		fileOpts := opts
		fileOpts.Replace = opts.Replace && i == 0

		result, err := ingest.Load(ctx, store, kind, table, fileOpts)
		if err != nil {
			return err
		}

		event := logger.Log.Info()
		if result.Diagnostics.CoercionFallbacks > 0 {
			event = logger.Log.Warn().Interface("fallbacks", result.Diagnostics.ByColumn)
		}
		event.
			Str("kind", string(kind)).
			Str("file", paths[i]).
			Int("rows", result.Rows).
			Int("written", result.Written).
			Msg("seeded file")
	}
	return nil
}
