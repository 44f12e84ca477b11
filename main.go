package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breakout-core/internal/api"
	"breakout-core/internal/events"
	"breakout-core/internal/monitor"
	"breakout-core/internal/order"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/config"
	"breakout-core/pkg/db"
	"breakout-core/pkg/kite"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting breakout core on :%s (dry_run=%v)", cfg.Port, cfg.DryRun)

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	bus := events.NewBus()

	// Strategy registry with env defaults and optional YAML presets.
	registry := strategy.NewRegistry(strategy.Params{
		Lookback:        cfg.Lookback,
		ProfitTargetPct: cfg.ProfitTargetPct,
		StopLossPct:     cfg.StopLossPct,
	})
	if cfg.PresetsPath != "" {
		presets, err := strategy.LoadPresets(cfg.PresetsPath)
		if err != nil {
			log.Printf("presets load failed (continuing with defaults): %v", err)
		} else {
			registry.ApplyPresets(presets)
			log.Printf("loaded %d symbol presets from %s", len(presets), cfg.PresetsPath)
		}
	}

	// Kite Connect collaborator. A persisted token from a previous session
	// is picked up automatically.
	kc := kite.NewClient(cfg.KiteAPIKey, "", cfg.KiteBaseURL, cfg.KiteExchange, cfg.KiteProduct)
	if token, err := kite.LoadToken(cfg.KiteTokenFile); err != nil {
		log.Printf("token file: %v", err)
	} else if token != "" {
		kc.SetAccessToken(token)
		log.Println("kite access token restored from file")
	}

	executor := &order.Executor{
		Journal: database,
		Bus:     bus,
		Gateway: kc,
		DryRun:  cfg.DryRun,
	}

	loop := &monitor.Loop{
		Registry:       registry,
		Market:         kc,
		Trader:         executor,
		Journal:        database,
		Bus:            bus,
		ActiveInterval: cfg.MonitorActiveInterval,
		IdleInterval:   cfg.MonitorIdleInterval,
		StopTimeout:    cfg.MonitorStopTimeout,
	}

	server := api.NewServer(bus, registry, executor, loop, kc, kc, database, api.SystemMeta{
		DryRun:  cfg.DryRun,
		Version: version,
	})
	server.DefaultQuantity = cfg.DefaultQuantity
	server.Sessions = func(ctx context.Context, requestToken string) (string, error) {
		token, err := kc.GenerateSession(ctx, requestToken, cfg.KiteAPISecret)
		if err != nil {
			return "", err
		}
		if err := kite.SaveToken(cfg.KiteTokenFile, token); err != nil {
			log.Printf("token persist failed: %v", err)
		}
		return token, nil
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()
	log.Printf("listening on :%s", cfg.Port)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	loop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("bye")
}
