package migration

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if !cfg.DBAutoMigrate {
			log.Info("database auto migration disabled")
			return nil
		}

		if err := Apply(conn, cfg.DBType); err != nil {
			return err
		}

		org, err := seed.EnsureMainOrg(context.Background(), conn, node, clk)
		if err != nil {
			return err
		}
		log.Info("database ready",
			zap.String("db_type", cfg.DBType),
			zap.String("default_org_id", org.ID.String()),
		)
		return nil
	}),
)

// Apply migrates conn with the SQL migrations on postgres and with gorm
// AutoMigrate elsewhere.
func Apply(conn *gorm.DB, dbType string) error {
	if strings.EqualFold(strings.TrimSpace(dbType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}
