package main

import (
	_ "time/tzdata"

	"jdpanel/internal/profiles/handler"
	"jdpanel/internal/profiles/repository"
	"jdpanel/internal/profiles/service"
	"jdpanel/internal/profiles/validator"
	"jdpanel/pkg/app"
	"jdpanel/pkg/config"
	"jdpanel/pkg/sealer"
)

const ServiceName = "profiles"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Profiles service")
	profileService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewProfileHandler(profileService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ProfileService {
	secretSealer, err := sealer.New(cfg.SealerKey)
	if err != nil {
		cfg.Log.Fatal("Invalid sealer key", "error", err)
	}

	profileService := service.NewProfileService(
		repository.NewMongoProfileRepository(cfg),
		validator.NewProfileValidator(cfg.Log),
		secretSealer,
		cfg,
	)

	cfg.Log.Info("Profile service initialized", "database", cfg.MongoDatabaseName)
	return profileService
}
