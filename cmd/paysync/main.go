package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/config"
	"github.com/harborlane/paysync/internal/migration"
	"github.com/harborlane/paysync/internal/observability"
	"github.com/harborlane/paysync/internal/server"
	"github.com/harborlane/paysync/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
