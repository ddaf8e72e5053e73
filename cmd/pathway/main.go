package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/metricspush"
	"github.com/smallbiznis/pathway/internal/migration"
	"github.com/smallbiznis/pathway/internal/observability"
	"github.com/smallbiznis/pathway/internal/server"
	"github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		metricspush.Module,

		// Organizations, courses, payments config and trails.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
