package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intel_service/internal/api"
	"intel_service/internal/core"
	"intel_service/internal/domain/repository"
	"intel_service/internal/infrastructure/broker"
	"intel_service/internal/infrastructure/catalogclient"
	"intel_service/internal/infrastructure/config"
	"intel_service/internal/infrastructure/logging"
	"intel_service/internal/infrastructure/metrics"
)

func main() {
	boot := slog.New(slog.NewTextHandler(os.Stdout, nil))
	config.LoadDotEnv(os.Getenv("ENV_FILE"), boot)
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	dual := logging.New(cfg.LogPath, cfg.LogLevel)
	defer dual.Close()
	logger := dual.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Источник справочника городов
	var postgresRepo *repository.PostgresRepository
	if cfg.PostgresURL != "" {
		postgresRepo, err = repository.NewPostgresRepository(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Error("postgres unavailable", "err", err)
			os.Exit(1)
		}
		defer postgresRepo.Close()
		if err := postgresRepo.EnsureSchema(ctx); err != nil {
			logger.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
	}

	var source core.CitySource = core.StaticSource{}
	switch cfg.DataSource {
	case config.SourceHTTP:
		source = catalogclient.NewHTTPCatalogClient(cfg.CatalogURL, 10*time.Second)
	case config.SourcePostgres:
		source = postgresRepo
	}
	catalog, err := core.LoadCatalog(ctx, source)
	if err != nil {
		logger.Error("catalog load failed", "source", cfg.DataSource, "err", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded", "source", cfg.DataSource, "cities", len(catalog.Cities()))

	// Метрики и стартовые позиции экипажей
	m := metrics.New()

	var depots core.DepotLocator = core.RingDepots{RadiusKm: cfg.DepotRadiusKm}
	var stations api.StationFinder
	if cfg.OverpassURL != "" {
		overpassRepo := repository.NewOverpassRepository(cfg.OverpassURL, cfg.OverpassTimeout, cfg.DepotRadiusKm)
		depots = overpassRepo
		stations = overpassRepo
	}

	engine := core.NewEngine(catalog, core.DefaultRegistry(), core.EngineConfig{
		Sim: core.SimConfig{
			ArrivalThresholdKm: cfg.ArrivalThresholdKm,
			TargetTimeout:      cfg.TargetTimeout.Seconds(),
			Preempt:            cfg.PreemptPatrols,
		},
		UnitsPerCity:      cfg.UnitsPerCity,
		UnitSpeed:         cfg.UnitSpeedKmps,
		AlertScanInterval: cfg.AlertScanInterval.Seconds(),
		Observer:          m,
		Logger:            logger,
		Depots:            depots,
	})
	if err := engine.Predictions().SelectModel(cfg.DefaultModel); err != nil {
		logger.Warn("default model rejected, keeping built-in default", "model", cfg.DefaultModel, "err", err)
	}
	if err := engine.SelectCity(ctx, cfg.DefaultCity); err != nil {
		logger.Warn("default city not loaded", "city", cfg.DefaultCity, "err", err)
	}

	// Приёмники тиков
	var sinks []core.TickSink
	if brokers := broker.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher := broker.NewKafkaPublisher(brokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Info("kafka publisher enabled", "brokers", brokers, "topic", cfg.KafkaTopic)
	}
	if postgresRepo != nil {
		sinks = append(sinks, repository.NewAlertArchiveSink(repository.NewPostgresAlertArchive(postgresRepo.DB)))
	}

	scheduler := core.NewScheduler(engine, cfg.TickPeriod, logger, sinks...)
	scheduler.Start(ctx)

	// Настройка HTTP-обработчиков
	handler := api.NewHandler(ctx, engine, scheduler, stations, logger)
	accessLog := slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer()
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(handler, m.Handler(), m.WrapHandler, accessLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop <- syscall.SIGTERM
		}
	}()

	// Корректное завершение
	<-stop
	logger.Info("shutdown signal received")
	scheduler.Stop()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	closed := engine.Close()
	logger.Info("engine closed", "closed_alerts", len(closed))
}
