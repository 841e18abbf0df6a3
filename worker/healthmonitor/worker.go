// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package healthmonitor probes every registered endpoint on an
// interval and maintains an aggregate view of backend health. Probe
// failures never propagate; they are absorbed into the per-endpoint
// status and the monitor keeps cycling.
package healthmonitor

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/athena-ai/servicebridge/core/service"
)

const (
	// DefaultInterval is the pause between probe cycles.
	DefaultInterval = 30 * time.Second

	// DefaultProbeTimeout bounds each individual probe.
	DefaultProbeTimeout = 5 * time.Second

	// HealthPath is the liveness route every backend exposes.
	HealthPath = "/health"
)

// Logger represents the methods used by the worker to log information.
type Logger interface {
	Debugf(string, ...interface{})
	Warningf(string, ...interface{})
}

// Prober issues one liveness request to an endpoint. Implementations
// must honour ctx cancellation.
type Prober interface {
	Probe(ctx context.Context, ep service.Endpoint) error
}

// Config defines the operation of the health monitor.
type Config struct {
	Registry *service.Registry
	Prober   Prober
	Clock    clock.Clock
	Logger   Logger

	// Interval is the pause between the end of one probe cycle and
	// the start of the next. Cycles never overlap.
	Interval time.Duration

	// ProbeTimeout is the hard deadline applied to each probe.
	ProbeTimeout time.Duration
}

// Validate returns an error if config cannot drive the worker.
func (config Config) Validate() error {
	if config.Registry == nil {
		return errors.NotValidf("nil Registry")
	}
	if config.Prober == nil {
		return errors.NotValidf("nil Prober")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Interval <= 0 {
		return errors.NotValidf("non-positive Interval")
	}
	if config.ProbeTimeout <= 0 {
		return errors.NotValidf("non-positive ProbeTimeout")
	}
	return nil
}

// Report is a consistent snapshot of one completed probe cycle.
type Report struct {
	// Healthy is true when at least half the endpoints are healthy.
	Healthy bool

	// HealthyCount and Total describe the cycle in aggregate.
	HealthyCount int
	Total        int

	// Statuses maps endpoint name to its latest status.
	Statuses map[string]service.Status
}

// Worker is the health monitor. The loop goroutine is the only writer
// of the status map; readers always see a complete post-cycle
// snapshot.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config

	mu       sync.RWMutex
	statuses map[string]service.Status
	healthy  bool
}

// NewWorker returns a running health monitor backed by config.
func NewWorker(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{
		config:   config,
		statuses: make(map[string]service.Status),
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	return w, errors.Trace(err)
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

// IsHealthy reports the aggregate health of the last completed cycle.
func (w *Worker) IsHealthy() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.healthy
}

// Status returns the latest status observed for the named endpoint.
func (w *Worker) Status(name string) (service.Status, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status, ok := w.statuses[name]
	if !ok {
		return service.Status{}, errors.NotFoundf("status for endpoint %q", name)
	}
	return status, nil
}

// Report returns a snapshot of the last completed cycle. The returned
// map is a copy; mutating it cannot disturb the worker.
func (w *Worker) Report() Report {
	w.mu.RLock()
	defer w.mu.RUnlock()

	statuses := make(map[string]service.Status, len(w.statuses))
	healthyCount := 0
	for name, status := range w.statuses {
		statuses[name] = status
		if status.Healthy {
			healthyCount++
		}
	}
	return Report{
		Healthy:      w.healthy,
		HealthyCount: healthyCount,
		Total:        len(w.statuses),
		Statuses:     statuses,
	}
}

func (w *Worker) loop() error {
	ctx := w.catacomb.Context(context.Background())

	timer := w.config.Clock.NewTimer(w.config.Interval)
	defer timer.Stop()

	// Probe immediately so consumers are not blind for a whole
	// interval after start-up.
	if err := w.runCycle(ctx); err != nil {
		return errors.Trace(err)
	}

	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case <-timer.Chan():
			if err := w.runCycle(ctx); err != nil {
				return errors.Trace(err)
			}
			// Re-arm only once the cycle has fully resolved, so
			// cycles never overlap.
			timer.Reset(w.config.Interval)
		}
	}
}

type probeOutcome struct {
	name   string
	status service.Status
}

// runCycle probes every endpoint concurrently, then replaces the
// status map in one step. It returns an error only when the worker is
// dying.
func (w *Worker) runCycle(ctx context.Context) error {
	endpoints := w.config.Registry.All()

	// The channel holds every outcome, so probe goroutines never
	// block even if the worker dies mid-cycle.
	outcomes := make(chan probeOutcome, len(endpoints))
	for _, ep := range endpoints {
		go func(ep service.Endpoint) {
			outcomes <- probeOutcome{name: ep.Name, status: w.probe(ctx, ep)}
		}(ep)
	}

	statuses := make(map[string]service.Status, len(endpoints))
	for range endpoints {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case outcome := <-outcomes:
			statuses[outcome.name] = outcome.status
		}
	}

	healthyCount := 0
	for _, status := range statuses {
		if status.Healthy {
			healthyCount++
		}
	}
	healthy := healthyCount*2 >= len(statuses)

	w.mu.Lock()
	w.statuses = statuses
	w.healthy = healthy
	w.mu.Unlock()

	w.config.Logger.Debugf("probe cycle complete: %d of %d endpoints healthy", healthyCount, len(statuses))
	return nil
}

// probe runs one liveness request under the configured timeout. It
// never returns an error: any failure is folded into the status.
func (w *Worker) probe(ctx context.Context, ep service.Endpoint) service.Status {
	ctx, cancel := context.WithTimeout(ctx, w.config.ProbeTimeout)
	defer cancel()

	start := w.config.Clock.Now()
	err := w.config.Prober.Probe(ctx, ep)
	observed := w.config.Clock.Now()

	if err != nil {
		w.config.Logger.Warningf("endpoint %q unhealthy: %v", ep.Name, err)
		return service.Status{
			Healthy:    false,
			Error:      err.Error(),
			ObservedAt: observed,
		}
	}
	return service.Status{
		Healthy:    true,
		Latency:    observed.Sub(start),
		ObservedAt: observed,
	}
}
