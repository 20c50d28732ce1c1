package main

import (
	"context"
	"time"
	_ "time/tzdata"

	mongoMigration "jdpanel/internal/migrations/mongo"
	postgresMigration "jdpanel/internal/migrations/postgres"
	"jdpanel/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.SetPostgres()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job")
	if err := postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log); err != nil {
		cfg.Log.Fatal("Postgres migration failed", "error", err)
	}
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Mongo migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
