// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// bridgemon is a small monitoring daemon: it probes the configured
// endpoints on an interval, sweeps the shared response cache, and
// serves the aggregate health view over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athena-ai/servicebridge/cache"
	"github.com/athena-ai/servicebridge/core/service"
	"github.com/athena-ai/servicebridge/rest"
	"github.com/athena-ai/servicebridge/worker/healthmonitor"
)

var logger = loggo.GetLogger("servicebridge.cmd.bridgemon")

const shutdownTimeout = 10 * time.Second

var (
	configPath    = gnuflag.String("config", "bridgemon.yaml", "path to the YAML config file")
	listenAddr    = gnuflag.String("listen", ":8090", "address to serve /status and /metrics on")
	loggingConfig = gnuflag.String("logging-config", "<root>=INFO", "loggo logging configuration")
)

func main() {
	gnuflag.Parse(true)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridgemon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loggo.ConfigureLoggers(*loggingConfig); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}
	settings, err := ReadSettings(*configPath)
	if err != nil {
		return errors.Trace(err)
	}

	registry := service.NewRegistry()
	for _, ep := range settings.Endpoints {
		if err := registry.Register(ep); err != nil {
			return errors.Trace(err)
		}
	}

	monitor, err := healthmonitor.NewWorker(healthmonitor.Config{
		Registry:     registry,
		Prober:       healthmonitor.NewRESTProber(rest.DefaultTransport(settings.ProbeTimeout)),
		Clock:        clock.WallClock,
		Logger:       loggo.GetLogger("servicebridge.worker.healthmonitor"),
		Interval:     settings.Interval,
		ProbeTimeout: settings.ProbeTimeout,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = worker.Stop(monitor) }()

	store := cache.NewStore(clock.WallClock)
	sweeper, err := cache.NewSweeper(cache.SweeperConfig{
		Store:    store,
		Clock:    clock.WallClock,
		Logger:   loggo.GetLogger("servicebridge.cache"),
		Interval: settings.SweepInterval,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = worker.Stop(sweeper) }()

	metrics := prometheus.NewRegistry()
	if err := metrics.Register(healthmonitor.NewCollector(monitor)); err != nil {
		return errors.Trace(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/status", &statusHandler{monitor: monitor})
	mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *listenAddr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s, monitoring %d endpoints", *listenAddr, registry.Len())
		serveErr <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Infof("caught %v, shutting down", s)
	case err := <-serveErr:
		return errors.Annotate(err, "status server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Annotate(err, "stopping status server")
	}
	if err := worker.Stop(monitor); err != nil {
		return errors.Annotate(err, "stopping health monitor")
	}
	if err := worker.Stop(sweeper); err != nil {
		return errors.Annotate(err, "stopping cache sweeper")
	}
	return nil
}
