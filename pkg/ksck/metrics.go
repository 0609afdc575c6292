// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package ksck

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks check executions and findings. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ChecksRun   *prometheus.CounterVec
	CheckErrors *prometheus.CounterVec
	Findings    *prometheus.CounterVec
}

// NewMetrics returns Metrics registered with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksRun: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ksck_checks_run_total",
			Help: "Number of check executions, by check name.",
		}, []string{"check"}),
		CheckErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ksck_check_errors_total",
			Help: "Number of checks that failed to run to completion, by check name.",
		}, []string{"check"}),
		Findings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ksck_findings_total",
			Help: "Number of findings discovered, by finding kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) onCheck(check string, err error) {
	if m == nil {
		return
	}
	m.ChecksRun.WithLabelValues(check).Inc()
	if err != nil {
		m.CheckErrors.WithLabelValues(check).Inc()
	}
}

func (m *Metrics) onFindings(findings []Finding) {
	if m == nil {
		return
	}
	for _, f := range findings {
		m.Findings.WithLabelValues(f.Kind.String()).Inc()
	}
}
