// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Test results, used as label values of the Tests counter.
//
const (
	ResultPassed = "passed"
	ResultFailed = "failed"
)

// Metrics provides Prometheus metrics for the testbench scheduler. All
// methods are safe to call on a nil *Metrics.
//
type Metrics struct {
	Resumes      prometheus.Counter
	Suspensions  prometheus.Counter
	TasksSpawned prometheus.Counter
	Tests        *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new set of metrics registered in their own registry.
//
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Resumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coroutine_resumes_total",
			Help:      "Total number of coroutine resumptions",
		}),
		Suspensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coroutine_suspensions_total",
			Help:      "Total number of coroutine suspensions",
		}),
		TasksSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_spawned_total",
			Help:      "Total number of tasks spawned",
		}),
		Tests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tests_total",
			Help:      "Total number of tests run",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.Resumes, m.Suspensions, m.TasksSpawned, m.Tests)
	return m
}

// Registry returns the registry the metrics are registered with.
//
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Resume records a coroutine resumption.
//
func (m *Metrics) Resume() {
	if m != nil {
		m.Resumes.Inc()
	}
}

// Suspend records a coroutine suspension.
//
func (m *Metrics) Suspend() {
	if m != nil {
		m.Suspensions.Inc()
	}
}

// TaskSpawned records a task spawn.
//
func (m *Metrics) TaskSpawned() {
	if m != nil {
		m.TasksSpawned.Inc()
	}
}

// TestDone records the result of a test.
//
func (m *Metrics) TestDone(passed bool) {
	if m == nil {
		return
	}
	if passed {
		m.Tests.WithLabelValues(ResultPassed).Inc()
	} else {
		m.Tests.WithLabelValues(ResultFailed).Inc()
	}
}
