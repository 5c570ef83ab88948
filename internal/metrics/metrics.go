// Copyright 2023-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes prometheus instrumentation for the dispatcher.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dpdispatch"

// Outcome labels.
const (
	OutcomeSent     = "sent"
	OutcomeDone     = "done"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics holds the dispatcher's collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	tasks    *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Collectors
// that are already registered, for example by another dispatcher using
// the same registry, are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests received, by category and outcome.",
		}, []string{"category", "outcome"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks completed by the backend, by target and outcome.",
		}, []string{"target", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Tasks sent to the backend and not yet completed.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time from sending a task to its completion.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
	}
	var err error
	m.requests, err = register(reg, m.requests)
	if err != nil {
		return nil, err
	}
	m.tasks, err = register(reg, m.tasks)
	if err != nil {
		return nil, err
	}
	m.inFlight, err = register(reg, m.inFlight)
	if err != nil {
		return nil, err
	}
	m.duration, err = register(reg, m.duration)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return collector, err
}

// RequestSent counts a request that was accepted and sent on the bus.
func (m *Metrics) RequestSent(category string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(category, OutcomeSent).Inc()
}

// RequestRejected counts a request that failed before reaching the bus.
func (m *Metrics) RequestRejected(category string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(category, OutcomeRejected).Inc()
}

// TaskStarted records a task sent on the bus.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// TaskFinished records a completed task.
func (m *Metrics) TaskFinished(target, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.tasks.WithLabelValues(target, outcome).Inc()
	m.duration.WithLabelValues(target).Observe(elapsed.Seconds())
}
