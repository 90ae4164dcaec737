package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ratelim/internal/api"
	"ratelim/internal/config"
	"ratelim/internal/events"
	"ratelim/internal/logging"
	"ratelim/internal/metrics"
	"ratelim/internal/pacer"
	"ratelim/internal/sink"
	"ratelim/internal/storage"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "ratelimd.yaml", "path to config file (yaml or json)")
	flag.Parse()

	mgr, err := config.NewManager(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ratelimd: load config: %v\n", err)
		os.Exit(1)
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting ratelimd", "version", version, "config", mgr.Path(), "cooldown", cfg.Pacer.Cooldown)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eventStore := events.NewStore(cfg.Events.StoreLimit)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("open audit store", "err", err)
		os.Exit(1)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("init audit store", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		if n, err := store.CountFirings(ctx); err == nil {
			logger.Info("audit store ready", "driver", cfg.Storage.Driver, "firings", n)
		}
	}

	// Broker hiccups can make the sink noisy; throttle its warnings.
	sinkLogger := slog.New(logging.Throttle(logger.Handler(), cfg.Pacer.LogThrottle))
	kafkaSink := sink.NewKafka(cfg.Sink.Kafka, sinkLogger)
	defer kafkaSink.Close()

	handle := pacer.NewHandle(pacer.New(cfg.Pacer, nil, store, kafkaSink, eventStore, m, logger))
	api.Start(ctx, mgr, handle, eventStore, reg, logger, version)

	stopWatch := make(chan struct{})
	go mgr.Watch(3*time.Second, func(newCfg *config.Config) {
		// Cooldowns are immutable per gate, so a reload swaps in a
		// fresh pacer. Counters and the recent-firings ring carry on.
		logger.Info("config reloaded", "cooldown", newCfg.Pacer.Cooldown)
		handle.Set(pacer.New(newCfg.Pacer, nil, store, kafkaSink, eventStore, m, logger))
	}, func(err error) {
		logger.Warn("config reload error", "err", err)
	}, stopWatch)

	<-ctx.Done()
	close(stopWatch)
	logger.Info("shutting down")
}
