// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package service holds the data model shared by the dispatcher, the
// health monitor and the batch coordinator: remote endpoints and the
// statuses observed for them.
package service

import (
	"net/url"
	"time"

	"github.com/juju/errors"
)

// Endpoint identifies one remote collaborator by name and base address.
// It is immutable once registered.
type Endpoint struct {
	// Name uniquely identifies the endpoint within a registry.
	Name string

	// BaseURL is the absolute address all request paths are resolved
	// against, e.g. "http://localhost:8082".
	BaseURL string
}

// Validate returns an error if the endpoint cannot identify a remote
// service.
func (e Endpoint) Validate() error {
	if e.Name == "" {
		return errors.NotValidf("endpoint with empty name")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return errors.NotValidf("endpoint %q base URL %q", e.Name, e.BaseURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.NotValidf("endpoint %q relative base URL %q", e.Name, e.BaseURL)
	}
	return nil
}

// Status is the outcome of a single liveness probe. Every probe cycle
// produces a fresh value; a previous status is replaced wholesale,
// never merged.
type Status struct {
	// Healthy is true when the probe got any 2xx response.
	Healthy bool

	// Latency is the observed round trip time of a successful probe.
	Latency time.Duration

	// Error describes why the endpoint was judged unhealthy. Empty
	// when Healthy is true.
	Error string

	// ObservedAt is the time the probe resolved.
	ObservedAt time.Time
}
