package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
	"github.com/angelmondragon/platehub-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory on disk (create|validate)")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS version (version)")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": opts.cmd, "dir": opts.dir})

	if err := run(ctx, logg, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, opts options) error {
	// create and validate only touch files, so they run without config.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "path", path), "migrate.created")
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		logg.Info(ctx, "migrate.validated")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	dialect := migrate.DialectFor(cfg)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	switch opts.cmd {
	case "up", "down", "status":
		if opts.cmd == "up" {
			if err := migrate.ValidateEmbedded(); err != nil {
				return fmt.Errorf("invalid embedded migrations: %w", err)
			}
		}
		err = migrate.Run(ctx, sqlDB, dialect, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("-version is required for version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.version)
	default:
		return fmt.Errorf("unknown -cmd %q", opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
