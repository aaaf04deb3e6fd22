// cmd/food-log/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"food-log/internal/config"
	"food-log/internal/llm"
	"food-log/internal/logger"
	"food-log/internal/metrics"
	"food-log/internal/recommend"
	"food-log/internal/server"
	"food-log/internal/storage"
	"food-log/internal/tracker"
	"food-log/internal/vision"
)

const appVersion = "1.0.0"

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	envFile    = flag.String("env-file", ".env", "Dotenv file loaded before reading config")
	port       = flag.Int("port", 0, "Port for HTTP transport (overrides config)")
	host       = flag.String("host", "", "Host address (overrides config)")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("food-log version %s\n", appVersion)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Log.Development,
	})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("food log server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	store, err := storage.New(cfg.Storage.Driver)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if cfg.AI.APIKey == "" {
		log.Warn("no completion API key configured, AI features will serve fallbacks")
	}
	client := llm.NewClient(cfg.AI.Client(), log.Named("llm"))

	aiEngine := recommend.NewAIEngine(client, log.Named("recommend"),
		recommend.WithMetrics(collector),
		recommend.WithTimeout(cfg.AI.Timeout),
	)
	engine, err := recommend.Select(cfg.Recommend.Strategy, aiEngine, recommend.NewRuleEngine())
	if err != nil {
		return err
	}
	checker := recommend.NewChecker(client, log.Named("checker"), collector, cfg.AI.Timeout)

	t := tracker.New(store, engine,
		tracker.WithChecker(checker),
		tracker.WithAnalyzer(vision.NewMockAnalyzer(cfg.Vision.Delay, nil, log.Named("vision"))),
		tracker.WithLogger(log.Named("tracker")),
		tracker.WithMetrics(collector),
	)
	defer t.Close()

	srv := server.NewFoodLogServer(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Name:            cfg.App.Name,
		Version:         appVersion,
	}, t, registry, log.Named("server"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First recommendations load in the background, like every later refresh.
	t.RefreshAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	log.Info("food log server ready",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("strategy", cfg.Recommend.Strategy),
		zap.String("model", client.Model()),
	)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	log.Info("shutting down")
	cancel()
	if err := srv.Stop(context.Background()); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
