package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/config"
	"github.com/Aashish019/Client-Link-Monitor/internal/httpapi"
	"github.com/Aashish019/Client-Link-Monitor/internal/hub"
	"github.com/Aashish019/Client-Link-Monitor/internal/logging"
	"github.com/Aashish019/Client-Link-Monitor/internal/monitor"
	"github.com/Aashish019/Client-Link-Monitor/internal/notify"
	"github.com/Aashish019/Client-Link-Monitor/internal/probe"
	"github.com/Aashish019/Client-Link-Monitor/internal/registry"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo/postgres"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo/sqlite"
	"github.com/Aashish019/Client-Link-Monitor/internal/sysmetrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("MONITOR_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	var notifiers notify.Multi
	notifiers = append(notifiers, notify.NewWebhook(cfg.AlertWebhookURL, logger))
	if slack := notify.NewSlack(cfg.SlackWebhookURL); slack != nil {
		notifiers = append(notifiers, slack)
	}

	state := monitor.NewState()
	liveHub := hub.New(state, logger)
	checker := probe.NewHTTPChecker(cfg.ProbeTimeout, cfg.InsecureSkipVerify)
	mon := monitor.New(logger, store, store, checker, notifiers, sysmetrics.New(), state, liveHub, monitor.Options{
		ProbeInterval:  cfg.CheckInterval,
		SystemInterval: cfg.SystemInterval,
		ProbeTimeout:   cfg.ProbeTimeout,
		Concurrency:    cfg.MaxConcurrentChecks,
	})
	reg := registry.New(logger, store, store, mon)

	if cfg.SeedFile != "" {
		seedClients(ctx, cfg.SeedFile, reg, logger)
		if cfg.WatchSeed {
			w, err := registry.WatchSeed(cfg.SeedFile, reg, logger)
			if err != nil {
				logger.Warn("seed_watch_unavailable", zap.Error(err))
			} else {
				w.Start(ctx)
			}
		}
	}

	mon.Start(ctx)

	api := httpapi.NewServer(logger, reg, mon, store, store, state, liveHub)
	api.RateRPM = cfg.RateRPM
	api.RateBurst = cfg.RateBurst

	server := &http.Server{
		Addr:        cfg.Addr,
		Handler:     api.Router(),
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: it would sever long-lived WebSocket pushes
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown_signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server_shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}

	mon.Wait()
	logger.Info("monitor_stopped")
}

// openStore picks postgres when DATABASE_URL is set and the embedded
// sqlite store otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("store_opened", zap.String("backend", "postgres"))
		return st, st.Close, nil
	}
	st, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("store_opened", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLitePath))
	return st, func() { _ = st.Close() }, nil
}

func seedClients(ctx context.Context, path string, reg *registry.Registry, logger *zap.Logger) {
	clients, err := registry.LoadSeed(path)
	if err != nil {
		logger.Warn("seed_load_error", zap.String("path", path), zap.Error(err))
		return
	}
	count, err := reg.Import(ctx, clients)
	if err != nil {
		logger.Warn("seed_import_partial", zap.Int("count", count), zap.Error(err))
	}
	logger.Info("seed_imported", zap.String("path", path), zap.Int("count", count))
}
