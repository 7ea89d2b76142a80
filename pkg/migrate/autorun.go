package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/yupvendas/storebot/pkg/config"
	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/logger"
)

// MaybeRun brings the schema up to date at boot. Postgres uses versioned
// goose migrations; SQLite runs gorm's auto-migration instead, since the
// SQL files target Postgres types.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if strings.EqualFold(cfg.DB.Driver, config.DriverSQLite) {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return client.DB().WithContext(ctx).AutoMigrate(allModels()...)
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, "postgres", DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

func allModels() []any {
	return []any{
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.CartItem{},
		&models.SavedOrderItem{},
		&models.StockNotification{},
		&models.ChatMessage{},
		&models.BotMessage{},
		&models.Setting{},
		&models.User{},
	}
}
