package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/statesynth/mealycache/assets"
	"github.com/statesynth/mealycache/pkg/logger"
)

// Migrate brings the schema of db to target, or to the newest version if target is zero.
func Migrate(ctx context.Context, db *sql.DB, target int64, l logger.Logger) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(assets.EmbedMigrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set sqlite dialect: %w", err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get sqlite db version: %w", err)
	}

	switch {
	case target == 0:
		err = goose.UpContext(ctx, db, assets.SqliteMigrationDir)
	case target < current:
		err = goose.DownToContext(ctx, db, assets.SqliteMigrationDir, target)
	case target > current:
		err = goose.UpToContext(ctx, db, assets.SqliteMigrationDir, target)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run sqlite migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get sqlite db version: %w", err)
	}

	if version != current {
		l.InfoWithContext(ctx, "sqlite schema migrated", zap.Int64("from", current), zap.Int64("to", version))
	}
	return nil
}

// Version returns the schema version of db.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(assets.EmbedMigrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set sqlite dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
