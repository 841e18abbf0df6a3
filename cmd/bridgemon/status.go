// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/athena-ai/servicebridge/worker/healthmonitor"
)

// reporter is the slice of the health monitor the status handler
// needs.
type reporter interface {
	Report() healthmonitor.Report
}

type statusResponse struct {
	Status    string                   `json:"status"`
	Healthy   int                      `json:"healthy"`
	Unhealthy int                      `json:"unhealthy"`
	Total     int                      `json:"total"`
	Services  map[string]serviceStatus `json:"services"`
}

type serviceStatus struct {
	Healthy    bool    `json:"healthy"`
	LatencyMS  float64 `json:"latency-ms"`
	Error      string  `json:"error,omitempty"`
	ObservedAt string  `json:"observed-at"`
}

// statusHandler serves the aggregate health view as JSON.
type statusHandler struct {
	monitor reporter
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.monitor.Report()
	resp := statusResponse{
		Status:    "degraded",
		Healthy:   report.HealthyCount,
		Unhealthy: report.Total - report.HealthyCount,
		Total:     report.Total,
		Services:  make(map[string]serviceStatus, len(report.Statuses)),
	}
	if report.Healthy {
		resp.Status = "healthy"
	}
	for name, status := range report.Statuses {
		resp.Services[name] = serviceStatus{
			Healthy:    status.Healthy,
			LatencyMS:  float64(status.Latency) / float64(time.Millisecond),
			Error:      status.Error,
			ObservedAt: status.ObservedAt.UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !report.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warningf("writing status response: %v", err)
	}
}
