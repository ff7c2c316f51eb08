/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes pulsewatch operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the Prometheus registry for pulsewatch metrics.
var Registry = prometheus.NewRegistry()

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsewatch",
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Total number of poll ticks",
		},
		[]string{"result"},
	)

	SourceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsewatch",
			Subsystem: "registry",
			Name:      "source_failures_total",
			Help:      "Total number of heartbeat source fetch failures",
		},
	)

	AlertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsewatch",
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Total number of alerts dispatched, by transition target status",
		},
		[]string{"status"},
	)

	NotifierFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsewatch",
			Subsystem: "alerts",
			Name:      "notifier_failures_total",
			Help:      "Total number of failed alert deliveries",
		},
	)

	ServicesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pulsewatch",
			Subsystem: "monitor",
			Name:      "services",
			Help:      "Number of monitored services by current status",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		PollsTotal,
		SourceFailures,
		AlertsSent,
		NotifierFailures,
		ServicesByStatus,
	)
}
