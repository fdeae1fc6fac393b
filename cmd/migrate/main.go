package main

import (
	"context"
	"os"

	"github.com/ghuser/sweetshop/migrations/sweet"
	"github.com/ghuser/sweetshop/pkg/config"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/migrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)

	if err := migrator.RunMigrations(context.Background(), cfg.DefinitionDatabaseURL, sweet.FS, log); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
