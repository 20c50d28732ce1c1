package main

import (
	_ "time/tzdata"

	"jdpanel/internal/agenda/events"
	"jdpanel/internal/agenda/gateway"
	"jdpanel/internal/agenda/handler"
	"jdpanel/internal/agenda/service"
	"jdpanel/internal/agenda/validator"
	contactsrepo "jdpanel/internal/contacts/repository"
	contactsservice "jdpanel/internal/contacts/service"
	contactsvalidator "jdpanel/internal/contacts/validator"
	profilesrepo "jdpanel/internal/profiles/repository"
	profilesservice "jdpanel/internal/profiles/service"
	profilesvalidator "jdpanel/internal/profiles/validator"
	"jdpanel/pkg/app"
	"jdpanel/pkg/config"
	"jdpanel/pkg/kafka"
	kafka_config "jdpanel/pkg/kafka/config"
	kafkamiddleware "jdpanel/pkg/kafka/middleware"
	"jdpanel/pkg/sealer"
)

const ServiceName = "agenda"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetPostgres()
	cfg.SetRedis()

	cfg.Log.Info("Starting Agenda service")
	serverApp := app.NewApplication()

	publisher := initPublisher(cfg, serverApp)
	agendaService := initServices(cfg, publisher)

	serverApp.SetApp(cfg, handler.NewAgendaHandler(agendaService, cfg.Log, cfg.GatewayWebhookSecret))
	serverApp.Run()
}

// initPublisher wires the booking events producer, or a no-op publisher
// when no brokers are configured.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("KAFKA_BROKERS not set, booking events disabled")
		return events.NewNoopPublisher(cfg.Log)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		metrics := kafkamiddleware.NewMetrics()
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(metrics))
		serverApp.AddStats(metrics)
	}

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events producer", "error", err)
		}
	})
	return events.NewKafkaPublisher(producer)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.AgendaService {
	secretSealer, err := sealer.New(cfg.SealerKey)
	if err != nil {
		cfg.Log.Fatal("Invalid sealer key", "error", err)
	}

	profileService := profilesservice.NewProfileService(
		profilesrepo.NewMongoProfileRepository(cfg),
		profilesvalidator.NewProfileValidator(cfg.Log),
		secretSealer,
		cfg,
	)
	contactService := contactsservice.NewContactService(
		contactsrepo.NewPostgresContactRepository(cfg),
		contactsvalidator.NewContactValidator(cfg.Log),
		cfg,
	)

	gw := gateway.New(gateway.Config{
		BaseURL:       cfg.GatewayBaseURL,
		Timeout:       cfg.GatewayTimeout,
		RatePerSecond: cfg.GatewayRatePerSecond,
		Burst:         cfg.GatewayBurst,
		Location:      cfg.ClinicLocation,
	}, cfg.Log)

	agendaService := service.NewAgendaService(
		gw,
		profileService,
		contactService,
		publisher,
		validator.NewAgendaValidator(cfg.Log),
		cfg,
	)

	cacheBackend := "memory"
	if cfg.Client.Redis != nil {
		cacheBackend = "redis"
	}
	cfg.Log.Info("Agenda service initialized",
		"gateway", cfg.GatewayBaseURL,
		"cache_backend", cacheBackend,
		"clinic_time_zone", cfg.ClinicTimeZone,
		"webhook_enabled", cfg.GatewayWebhookSecret != "",
	)
	return agendaService
}
