package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// DialectFor picks the goose dialect matching the configured database.
func DialectFor(cfg *config.Config) string {
	if cfg.FeatureFlags.UseSQLite || cfg.DB.Driver == config.DBDriverSQLite {
		return DialectSQLite
	}
	return DialectPostgres
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg)
	meta := map[string]any{"env": cfg.App.Env, "dialect": dialect}
	ctx = logg.WithFields(ctx, meta)
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("invalid embedded migrations: %w", err)
	}
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
