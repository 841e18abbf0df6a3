// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package healthmonitor_test

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/athena-ai/servicebridge/core/service"
	"github.com/athena-ai/servicebridge/internal/testhelpers"
	"github.com/athena-ai/servicebridge/worker/healthmonitor"
)

type workerSuite struct {
	testing.IsolationSuite

	clock    *testclock.Clock
	registry *service.Registry
	prober   *fakeProber
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.registry = service.NewRegistry()
	s.prober = newFakeProber()
}

func (s *workerSuite) register(c *gc.C, names ...string) {
	for _, name := range names {
		err := s.registry.Register(service.Endpoint{
			Name:    name,
			BaseURL: "http://localhost:8080",
		})
		c.Assert(err, jc.ErrorIsNil)
	}
}

func (s *workerSuite) newWorker(c *gc.C) *healthmonitor.Worker {
	w, err := healthmonitor.NewWorker(healthmonitor.Config{
		Registry:     s.registry,
		Prober:       s.prober,
		Clock:        s.clock,
		Logger:       loggo.GetLogger("test"),
		Interval:     30 * time.Second,
		ProbeTimeout: 5 * time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.AddCleanup(func(c *gc.C) {
		workertest.CleanKill(c, w)
	})
	return w
}

// waitReport polls until the worker's report satisfies ok.
func waitReport(c *gc.C, w *healthmonitor.Worker, ok func(healthmonitor.Report) bool) healthmonitor.Report {
	var report healthmonitor.Report
	for start := time.Now(); time.Since(start) < testhelpers.LongWait; {
		report = w.Report()
		if ok(report) {
			return report
		}
		time.Sleep(time.Millisecond)
	}
	c.Fatalf("timed out waiting for report; last %+v", report)
	return report
}

func (s *workerSuite) TestValidate(c *gc.C) {
	cfg := healthmonitor.Config{}
	c.Check(cfg.Validate(), jc.Satisfies, errors.IsNotValid)

	_, err := healthmonitor.NewWorker(cfg)
	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *workerSuite) TestFirstCycleProbesEveryEndpoint(c *gc.C) {
	s.register(c, "chat", "memory", "vision", "llm-router")
	s.prober.setError("vision", errors.New("connection refused"))

	w := s.newWorker(c)
	report := waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 4
	})

	c.Check(report.Statuses, gc.HasLen, 4)
	c.Check(report.HealthyCount, gc.Equals, 3)
	// 3 of 4 healthy satisfies the majority rule.
	c.Check(report.Healthy, jc.IsTrue)
	c.Check(w.IsHealthy(), jc.IsTrue)

	status, err := w.Status("vision")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(status.Healthy, jc.IsFalse)
	c.Check(status.Error, gc.Matches, ".*connection refused.*")

	status, err = w.Status("chat")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(status.Healthy, jc.IsTrue)
	c.Check(status.Error, gc.Equals, "")
}

func (s *workerSuite) TestMinorityHealthyIsUnhealthy(c *gc.C) {
	s.register(c, "a", "b", "c")
	s.prober.setError("a", errors.New("boom"))
	s.prober.setError("b", errors.New("boom"))

	w := s.newWorker(c)
	report := waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 3
	})
	// 1*2 < 3.
	c.Check(report.Healthy, jc.IsFalse)
}

func (s *workerSuite) TestExactlyHalfHealthyIsHealthy(c *gc.C) {
	s.register(c, "a", "b")
	s.prober.setError("b", errors.New("boom"))

	w := s.newWorker(c)
	report := waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 2
	})
	// 1*2 >= 2.
	c.Check(report.Healthy, jc.IsTrue)
}

func (s *workerSuite) TestStatusForUnknownEndpoint(c *gc.C) {
	s.register(c, "chat")
	w := s.newWorker(c)
	waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 1
	})

	_, err := w.Status("no-such-endpoint")
	c.Check(err, jc.Satisfies, errors.IsNotFound)
}

func (s *workerSuite) TestNextCycleReplacesStatuses(c *gc.C) {
	s.register(c, "chat")
	w := s.newWorker(c)
	waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 1 && r.Healthy
	})

	// The endpoint goes down; the next cycle must fully replace the
	// previous status, not merge with it.
	s.prober.setError("chat", errors.New("read timeout"))
	err := s.clock.WaitAdvance(30*time.Second, testhelpers.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)

	report := waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 1 && !r.Healthy
	})
	status := report.Statuses["chat"]
	c.Check(status.Healthy, jc.IsFalse)
	c.Check(status.Error, gc.Matches, ".*read timeout.*")
	c.Check(status.Latency, gc.Equals, time.Duration(0))
}

func (s *workerSuite) TestInProgressCycleIsNotVisible(c *gc.C) {
	s.register(c, "a", "b")
	w := s.newWorker(c)
	waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.Total == 2 && r.HealthyCount == 2
	})

	// Second cycle: "a" now fails and "b" blocks, holding the cycle
	// open. The worker must keep serving the first snapshot.
	s.prober.setError("a", errors.New("boom"))
	gate := s.prober.setGate("b")
	err := s.clock.WaitAdvance(30*time.Second, testhelpers.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)

	s.prober.waitCalls(c, 4) // both second-cycle probes started
	report := w.Report()
	c.Check(report.HealthyCount, gc.Equals, 2)
	c.Check(report.Healthy, jc.IsTrue)

	close(gate)
	report = waitReport(c, w, func(r healthmonitor.Report) bool {
		return r.HealthyCount == 1
	})
	c.Check(report.Statuses["a"].Healthy, jc.IsFalse)
	c.Check(report.Statuses["b"].Healthy, jc.IsTrue)
}

func (s *workerSuite) TestKillWhileProbing(c *gc.C) {
	s.register(c, "slow")
	s.prober.setGate("slow")

	w, err := healthmonitor.NewWorker(healthmonitor.Config{
		Registry:     s.registry,
		Prober:       s.prober,
		Clock:        s.clock,
		Logger:       loggo.GetLogger("test"),
		Interval:     30 * time.Second,
		ProbeTimeout: 5 * time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)

	s.prober.waitCalls(c, 1)
	workertest.CleanKill(c, w)
}

// fakeProber fails or blocks probes per endpoint name.
type fakeProber struct {
	mu    sync.Mutex
	errs  map[string]error
	gates map[string]chan struct{}
	calls int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (p *fakeProber) setError(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[name] = err
}

func (p *fakeProber) setGate(name string) chan struct{} {
	gate := make(chan struct{})
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gates[name] = gate
	return gate
}

func (p *fakeProber) waitCalls(c *gc.C, n int) {
	for start := time.Now(); time.Since(start) < testhelpers.LongWait; {
		p.mu.Lock()
		calls := p.calls
		p.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	c.Fatalf("timed out waiting for %d probe calls", n)
}

// Probe is part of the healthmonitor.Prober interface.
func (p *fakeProber) Probe(ctx context.Context, ep service.Endpoint) error {
	p.mu.Lock()
	p.calls++
	err := p.errs[ep.Name]
	gate := p.gates[ep.Name]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
