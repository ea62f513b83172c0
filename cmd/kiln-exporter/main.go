// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Kiln-exporter is the Prometheus sidecar for kilnd. It polls the
// daemon's control socket on a fixed interval, converts the status
// payloads into metric samples, and serves them on /metrics. The
// daemon stays oblivious: everything the exporter knows it learns
// through the four public status actions.
//
// Configuration comes from an optional YAML file (KILN_EXPORTER_CONFIG
// or --config) with flag overrides on top; see lib/config. The
// process runs two long-lived goroutines, the collection loop and the
// HTTP server, and stops both when either fails or a signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/kiln-build/kiln-exporter/lib/clock"
	"github.com/kiln-build/kiln-exporter/lib/collector"
	"github.com/kiln-build/kiln-exporter/lib/config"
	"github.com/kiln-build/kiln-exporter/lib/expose"
	"github.com/kiln-build/kiln-exporter/lib/kilnclient"
	"github.com/kiln-build/kiln-exporter/lib/process"
	"github.com/kiln-build/kiln-exporter/lib/service"
	"github.com/kiln-build/kiln-exporter/lib/snapshot"
	"github.com/kiln-build/kiln-exporter/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "",
		"path to the YAML configuration file (overrides "+config.EnvConfig+")")
	socket := flag.String("socket", "",
		"kilnd control socket path (overrides config)")
	listen := flag.String("listen", "",
		"metrics listen address (overrides config)")
	interval := flag.Duration("interval", 0,
		"collection interval (overrides config)")
	callTimeout := flag.Duration("call-timeout", 0,
		"timeout for each kilnd status call (overrides config)")
	showVersion := flag.Bool("version", false,
		"print version information and exit")
	flag.Parse()

	if *showVersion {
		version.Print("kiln-exporter")
		return nil
	}

	// Config file first, then flags on top.
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if *socket != "" {
		cfg.Socket = *socket
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *interval > 0 {
		cfg.Interval = config.Duration(*interval)
	}
	if *callTimeout > 0 {
		cfg.CallTimeout = config.Duration(*callTimeout)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := snapshot.NewStore()
	client := kilnclient.New(cfg.Socket, cfg.EffectiveCallTimeout())
	scraper := collector.New(collector.Config{
		Source:   client,
		Store:    store,
		Logger:   logger,
		Interval: cfg.Interval.Duration(),
		Clock:    clock.Real(),
	})

	exporter := expose.NewExporter(store, clock.Real())
	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.Listen,
		Handler: expose.NewHandler(exporter, logger),
		Logger:  logger,
	})

	logger.Info("kiln exporter starting",
		"version", version.Short(),
		"socket", cfg.Socket,
		"listen", cfg.Listen,
		"interval", cfg.Interval.Duration(),
		"call_timeout", cfg.EffectiveCallTimeout(),
	)

	// Either goroutine failing (or a signal) takes the whole
	// process down.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return scraper.Run(groupCtx)
	})
	group.Go(func() error {
		return httpServer.Serve(groupCtx)
	})
	return group.Wait()
}
