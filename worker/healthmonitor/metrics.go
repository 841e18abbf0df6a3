// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package healthmonitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "servicebridge"

// ReportSource supplies probe cycle snapshots to the collector.
type ReportSource interface {
	Report() Report
}

// Collector exposes the latest probe cycle as prometheus metrics.
type Collector struct {
	source ReportSource

	upDesc      *prometheus.Desc
	latencyDesc *prometheus.Desc
	healthyDesc *prometheus.Desc
	totalDesc   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reading from source.
func NewCollector(source ReportSource) *Collector {
	return &Collector{
		source: source,
		upDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "endpoint", "up"),
			"whether the endpoint answered its last probe with a 2xx",
			[]string{"endpoint"},
			nil),
		latencyDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "endpoint", "latency_seconds"),
			"round trip time of the endpoint's last successful probe",
			[]string{"endpoint"},
			nil),
		healthyDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "endpoints", "healthy"),
			"number of endpoints healthy in the last probe cycle",
			nil,
			nil),
		totalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "endpoints", "total"),
			"number of endpoints probed in the last cycle",
			nil,
			nil),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.upDesc
	ch <- c.latencyDesc
	ch <- c.healthyDesc
	ch <- c.totalDesc
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	report := c.source.Report()
	for name, status := range report.Statuses {
		up := 0.0
		if status.Healthy {
			up = 1.0
			ch <- prometheus.MustNewConstMetric(
				c.latencyDesc, prometheus.GaugeValue, status.Latency.Seconds(), name)
		}
		ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, up, name)
	}
	ch <- prometheus.MustNewConstMetric(c.healthyDesc, prometheus.GaugeValue, float64(report.HealthyCount))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(report.Total))
}
