package main

import (
	"context"
	"errors"
	_ "time/tzdata"

	"jdpanel/internal/contacts/events"
	"jdpanel/internal/contacts/handler"
	"jdpanel/internal/contacts/repository"
	"jdpanel/internal/contacts/service"
	"jdpanel/internal/contacts/validator"
	"jdpanel/pkg/app"
	"jdpanel/pkg/config"
	"jdpanel/pkg/kafka"
	kafka_config "jdpanel/pkg/kafka/config"
	kafkamiddleware "jdpanel/pkg/kafka/middleware"
)

const ServiceName = "contacts"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetPostgres()
	cfg.SetRedis()

	cfg.Log.Info("Starting Contacts service")
	contactService := initServices(cfg)

	serverApp := app.NewApplication()
	startBookingEventsConsumer(cfg, serverApp, contactService)

	serverApp.SetApp(cfg, handler.NewContactHandler(contactService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ContactService {
	contactService := service.NewContactService(
		repository.NewPostgresContactRepository(cfg),
		validator.NewContactValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Contact service initialized")
	return contactService
}

// startBookingEventsConsumer keeps contacts' last interaction current from
// agenda booking events. It is skipped when no brokers are configured.
func startBookingEventsConsumer(cfg *config.Config, serverApp *app.Application, recorder events.InteractionRecorder) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("KAFKA_BROKERS not set, booking events consumer disabled")
		return
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.BookingEventsTopic,
		kafkaCfg.ContactsGroupID,
		kafkaCfg.BookingEventsDLQTopic,
		events.NewBookingEventHandler(recorder, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		metrics := kafkamiddleware.NewMetrics()
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware(metrics))
		serverApp.AddStats(metrics)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Booking events consumer stopped", "error", err)
		}
	}()

	serverApp.OnShutdown(func() {
		cancel()
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events consumer", "error", err)
		}
	})
}
