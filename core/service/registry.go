// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"sort"
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Registry holds the set of known endpoints. Registration is expected
// at start-up, but the registry tolerates concurrent use throughout.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// NewRegistry returns an empty endpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]Endpoint),
	}
}

// Register adds the endpoint to the registry. Names are unique; a
// second registration under the same name is an error.
func (r *Registry) Register(ep Endpoint) error {
	if err := ep.Validate(); err != nil {
		return errors.Trace(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.endpoints[ep.Name]; ok {
		return errors.AlreadyExistsf("endpoint %q", ep.Name)
	}
	r.endpoints[ep.Name] = ep
	return nil
}

// Endpoint returns the endpoint registered under name.
func (r *Registry) Endpoint(name string) (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[name]
	if !ok {
		return Endpoint{}, errors.NotFoundf("endpoint %q", name)
	}
	return ep, nil
}

// All returns every registered endpoint, ordered by name so callers
// iterate deterministically.
func (r *Registry) All() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns the sorted set of registered endpoint names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := set.NewStrings()
	for name := range r.endpoints {
		names.Add(name)
	}
	return names.SortedValues()
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}
