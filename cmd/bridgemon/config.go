// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/athena-ai/servicebridge/cache"
	"github.com/athena-ai/servicebridge/core/service"
	"github.com/athena-ai/servicebridge/worker/healthmonitor"
)

// configFile is the on-disk YAML shape. Durations are strings in
// time.ParseDuration form ("30s", "5m").
type configFile struct {
	Endpoints     []endpointEntry `yaml:"endpoints"`
	Interval      string          `yaml:"interval,omitempty"`
	ProbeTimeout  string          `yaml:"probe-timeout,omitempty"`
	SweepInterval string          `yaml:"sweep-interval,omitempty"`
}

type endpointEntry struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base-url"`
}

// Settings is the parsed, validated daemon configuration.
type Settings struct {
	Endpoints     []service.Endpoint
	Interval      time.Duration
	ProbeTimeout  time.Duration
	SweepInterval time.Duration
}

// ReadSettings loads and validates the config file at path.
func ReadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Annotatef(err, "reading config %q", path)
	}
	return parseSettings(data)
}

func parseSettings(data []byte) (Settings, error) {
	var file configFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return Settings{}, errors.Annotate(err, "parsing config")
	}
	if len(file.Endpoints) == 0 {
		return Settings{}, errors.NotValidf("config without endpoints")
	}

	settings := Settings{
		Interval:      healthmonitor.DefaultInterval,
		ProbeTimeout:  healthmonitor.DefaultProbeTimeout,
		SweepInterval: cache.DefaultSweepInterval,
	}
	for _, entry := range file.Endpoints {
		ep := service.Endpoint{Name: entry.Name, BaseURL: entry.BaseURL}
		if err := ep.Validate(); err != nil {
			return Settings{}, errors.Trace(err)
		}
		settings.Endpoints = append(settings.Endpoints, ep)
	}

	var err error
	if settings.Interval, err = parseDuration(file.Interval, settings.Interval); err != nil {
		return Settings{}, errors.Annotate(err, "interval")
	}
	if settings.ProbeTimeout, err = parseDuration(file.ProbeTimeout, settings.ProbeTimeout); err != nil {
		return Settings{}, errors.Annotate(err, "probe-timeout")
	}
	if settings.SweepInterval, err = parseDuration(file.SweepInterval, settings.SweepInterval); err != nil {
		return Settings{}, errors.Annotate(err, "sweep-interval")
	}
	return settings, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if d <= 0 {
		return 0, errors.NotValidf("non-positive duration %q", value)
	}
	return d, nil
}
