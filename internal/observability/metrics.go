// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/hybridid/internal/identity"
)

// Metrics holds the identity counters and implements identity.Recorder.
type Metrics struct {
	AuthAttempts   *prometheus.CounterVec
	Lookups        *prometheus.CounterVec
	DirectoryBinds *prometheus.CounterVec
}

var _ identity.Recorder = (*Metrics)(nil)

// NewMetrics creates and registers the identity metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridid_auth_attempts_total",
				Help: "Total number of authentication attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridid_lookups_total",
				Help: "Total number of user lookups by operation, source and outcome",
			},
			[]string{"operation", "source", "outcome"},
		),
		DirectoryBinds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybridid_directory_binds_total",
				Help: "Total number of end-user directory binds by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.Lookups, m.DirectoryBinds)

	return m
}

// AuthAttempt implements identity.Recorder. Failures carry no source.
func (m *Metrics) AuthAttempt(src identity.Source, outcome identity.Outcome) {
	m.AuthAttempts.WithLabelValues(sourceLabel(src), string(outcome)).Inc()
}

// DirectoryBind implements identity.Recorder.
func (m *Metrics) DirectoryBind(outcome identity.Outcome) {
	m.DirectoryBinds.WithLabelValues(string(outcome)).Inc()
}

// Lookup implements identity.Recorder.
func (m *Metrics) Lookup(op string, src identity.Source, outcome identity.Outcome) {
	m.Lookups.WithLabelValues(op, sourceLabel(src), string(outcome)).Inc()
}

func sourceLabel(src identity.Source) string {
	if src == "" {
		return "none"
	}
	return string(src)
}
