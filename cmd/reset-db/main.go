// Drops every managed table, recreates the schema and reseeds it.
// Development tool; do not point it at production data.
package main

import (
	"go.uber.org/zap"

	"gestao-backend/shared/config"
	"gestao-backend/shared/database"
	"gestao-backend/shared/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.GetConfig()
	log := logger.Get()
	defer log.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Reverse dependency order so referencing tables drop first.
	managed := database.ManagedModels()
	for i := len(managed) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(managed[i]); err != nil {
			log.Fatal("failed to drop table", zap.Error(err))
		}
	}
	log.Info("tables dropped")

	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	if err := database.SeedDatabase(db, cfg); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	log.Info("database reset complete")
}
