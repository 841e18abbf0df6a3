// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/athena-ai/servicebridge/rest"
)

// DefaultTTL is how long responses stay valid when the caller does not
// say otherwise.
const DefaultTTL = 5 * time.Minute

// Caller dispatches requests through a rest.Client, serving repeated
// requests from the store while their entries are within ttl. The
// stored payload round-trips byte for byte.
type Caller struct {
	client   *rest.Client
	store    *Store
	ttl      time.Duration
	cacheAll bool
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) CallerOption {
	return func(c *Caller) {
		c.ttl = ttl
	}
}

// CacheAll caches responses for every method, not just GET. Only safe
// when the cached routes are idempotent lookups.
func CacheAll() CallerOption {
	return func(c *Caller) {
		c.cacheAll = true
	}
}

// NewCaller wraps client with read-through caching backed by store.
func NewCaller(client *rest.Client, store *Store, options ...CallerOption) *Caller {
	c := &Caller{
		client: client,
		store:  store,
		ttl:    DefaultTTL,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get dispatches a GET request through the cache.
func (c *Caller) Get(ctx context.Context, path string, result interface{}) error {
	return c.Call(ctx, "GET", path, nil, result)
}

// Call dispatches the request, consulting the store first. On a miss
// the raw 2xx payload is stored before decoding, so a later hit
// returns exactly the bytes the server sent. Failures are never
// cached.
func (c *Caller) Call(ctx context.Context, method, path string, body, result interface{}) error {
	if !c.cacheable(method) {
		return errors.Trace(c.client.Call(ctx, method, path, body, result))
	}

	encoded, err := rest.Marshal(body)
	if err != nil {
		return errors.Trace(err)
	}
	address, err := c.client.URL(path)
	if err != nil {
		return errors.Trace(err)
	}
	key := Fingerprint(method, address, encoded)

	if payload, ok := c.store.Get(key); ok {
		logger.Tracef("cache hit for %s %s", method, address)
		return errors.Trace(rest.Unmarshal(payload, result))
	}

	payload, err := c.client.DoBytes(ctx, method, path, encoded)
	if err != nil {
		return errors.Trace(err)
	}
	c.store.Set(key, payload, c.ttl)
	return errors.Trace(rest.Unmarshal(payload, result))
}

func (c *Caller) cacheable(method string) bool {
	return c.cacheAll || method == "GET"
}
