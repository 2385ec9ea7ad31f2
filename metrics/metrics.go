// Package metrics exposes Prometheus counters for the freeze engine.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtps/mealplan-engine/generic"
)

// Prometheus implements mealplan.Recorder on its own registry.
type Prometheus struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	frozenDays  *prometheus.CounterVec
	unfrozeDays prometheus.Counter
}

// New registers the engine collectors on a fresh registry.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "freeze_requests_total",
			Help:      "Freeze and unfreeze requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		frozenDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "frozen_days_total",
			Help:      "Calendar days frozen, split by shared or plan-local allowance.",
		}, []string{"allowance"}),
		unfrozeDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "unfrozen_days_total",
			Help:      "Calendar days unfrozen.",
		}),
	}
	p.registry.MustRegister(p.requests, p.frozenDays, p.unfrozeDays)
	return p
}

func (p *Prometheus) FreezeApplied(days int, shared bool) {
	p.requests.WithLabelValues("freeze", "ok").Inc()
	scope := "local"
	if shared {
		scope = "shared"
	}
	p.frozenDays.WithLabelValues(scope).Add(float64(days))
}

func (p *Prometheus) UnfreezeApplied(days int) {
	p.requests.WithLabelValues("unfreeze", "ok").Inc()
	p.unfrozeDays.Add(float64(days))
}

func (p *Prometheus) Rejected(operation string, err error) {
	p.requests.WithLabelValues(operation, Outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors).
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Outcome classifies an engine error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, generic.ErrAllowanceExceeded):
		return "allowance_exceeded"
	case generic.IsNotFound(err):
		return "not_found"
	case generic.IsClientError(err):
		return "invalid"
	case generic.IsConflict(err):
		return "conflict"
	case errors.Is(err, generic.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
