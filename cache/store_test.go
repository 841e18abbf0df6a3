// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache_test

import (
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/athena-ai/servicebridge/cache"
)

type storeSuite struct {
	testing.IsolationSuite

	clock *testclock.Clock
	store *cache.Store
}

var _ = gc.Suite(&storeSuite{})

func (s *storeSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.store = cache.NewStore(s.clock)
}

func (s *storeSuite) TestRoundTrip(c *gc.C) {
	payload := []byte(`{"label":"cat","score":0.97}`)
	s.store.Set("key", payload, time.Minute)

	got, ok := s.store.Get("key")
	c.Assert(ok, jc.IsTrue)
	c.Check(got, jc.DeepEquals, payload)
}

func (s *storeSuite) TestStoredPayloadIsACopy(c *gc.C) {
	payload := []byte("original")
	s.store.Set("key", payload, time.Minute)
	payload[0] = 'X'

	got, ok := s.store.Get("key")
	c.Assert(ok, jc.IsTrue)
	c.Check(string(got), gc.Equals, "original")

	// Mutating the returned slice must not poison the entry either.
	got[0] = 'Y'
	again, ok := s.store.Get("key")
	c.Assert(ok, jc.IsTrue)
	c.Check(string(again), gc.Equals, "original")
}

func (s *storeSuite) TestHitWithinTTL(c *gc.C) {
	s.store.Set("key", []byte("payload"), time.Minute)
	s.clock.Advance(30 * time.Second)

	got, ok := s.store.Get("key")
	c.Assert(ok, jc.IsTrue)
	c.Check(string(got), gc.Equals, "payload")
}

func (s *storeSuite) TestMissAfterTTLEvicts(c *gc.C) {
	s.store.Set("key", []byte("payload"), time.Minute)
	s.clock.Advance(61 * time.Second)

	_, ok := s.store.Get("key")
	c.Check(ok, jc.IsFalse)
	// Evicted on read, not merely ignored.
	c.Check(s.store.Len(), gc.Equals, 0)
}

func (s *storeSuite) TestExactTTLBoundaryStillValid(c *gc.C) {
	s.store.Set("key", []byte("payload"), time.Minute)
	s.clock.Advance(time.Minute)

	_, ok := s.store.Get("key")
	c.Check(ok, jc.IsTrue)
}

func (s *storeSuite) TestLastWriteWins(c *gc.C) {
	s.store.Set("key", []byte("first"), time.Minute)
	s.store.Set("key", []byte("second"), time.Minute)

	got, ok := s.store.Get("key")
	c.Assert(ok, jc.IsTrue)
	c.Check(string(got), gc.Equals, "second")
	c.Check(s.store.Len(), gc.Equals, 1)
}

func (s *storeSuite) TestSweepRemovesOnlyExpired(c *gc.C) {
	s.store.Set("old", []byte("a"), time.Minute)
	s.clock.Advance(2 * time.Minute)
	s.store.Set("fresh", []byte("b"), time.Minute)

	evicted := s.store.Sweep()
	c.Check(evicted, gc.Equals, 1)
	c.Check(s.store.Len(), gc.Equals, 1)

	_, ok := s.store.Get("fresh")
	c.Check(ok, jc.IsTrue)
}

func (s *storeSuite) TestFingerprintDeterministic(c *gc.C) {
	a := cache.Fingerprint("GET", "http://localhost:8082/models", nil)
	b := cache.Fingerprint("GET", "http://localhost:8082/models", nil)
	c.Check(a, gc.Equals, b)

	c.Check(a, gc.Not(gc.Equals), cache.Fingerprint("POST", "http://localhost:8082/models", nil))
	c.Check(a, gc.Not(gc.Equals), cache.Fingerprint("GET", "http://localhost:8082/agents", nil))
	c.Check(a, gc.Not(gc.Equals), cache.Fingerprint("GET", "http://localhost:8082/models", []byte("{}")))
}
