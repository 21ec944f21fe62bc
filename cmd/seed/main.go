// Seeds the database with the platform admin account and a demo
// company. Safe to run repeatedly.
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

	if err := database.SeedDatabase(db, cfg); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	log.Info("seeding complete")
}
