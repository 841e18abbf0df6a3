// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package healthmonitor

import (
	"context"

	"github.com/juju/errors"

	"github.com/athena-ai/servicebridge/core/service"
	"github.com/athena-ai/servicebridge/rest"
)

// RESTProber probes endpoints with a single uncached GET to the
// health route through the dispatcher. Any 2xx means healthy;
// anything else, including transport failure, does not.
type RESTProber struct {
	transport rest.Transport
}

// NewRESTProber returns a prober using the given transport, or the
// default one when nil.
func NewRESTProber(transport rest.Transport) *RESTProber {
	return &RESTProber{transport: transport}
}

// Probe is part of the Prober interface.
func (p *RESTProber) Probe(ctx context.Context, ep service.Endpoint) error {
	options := []rest.Option(nil)
	if p.transport != nil {
		options = append(options, rest.WithTransport(p.transport))
	}
	client, err := rest.NewClient(ep, options...)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(client.Get(ctx, HealthPath, nil))
}
