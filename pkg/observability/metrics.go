// Package observability provides Prometheus instrumentation for the
// maitre engine. Metrics plug into the engine through lifecycle hooks, so
// the turn algorithm itself stays free of metric concerns.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Extractions        *prometheus.CounterVec
	ActionsEmitted     *prometheus.CounterVec
}

// NewMetrics registers engine collectors on reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maitre",
			Name:      "turns_total",
			Help:      "Turns processed, labeled by the state entered.",
		}, []string{"state"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maitre",
			Name:      "validation_failures_total",
			Help:      "Recoverable input validation failures per state.",
		}, []string{"state"}),
		Extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maitre",
			Name:      "extractions_total",
			Help:      "AI-assisted extraction attempts by outcome.",
		}, []string{"state", "outcome"}),
		ActionsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maitre",
			Name:      "actions_emitted_total",
			Help:      "Side-effect requests emitted for the host.",
		}, []string{"action"}),
	}
}

// Hooks returns lifecycle hooks that feed these collectors. Merge with any
// user hooks before constructing the engine.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, ev *domain.StateEvent) {
			m.TurnsTotal.WithLabelValues(ev.StateID).Inc()
		},
		OnValidationFail: func(_ context.Context, ev *domain.ValidationEvent) {
			m.ValidationFailures.WithLabelValues(ev.StateID).Inc()
		},
		OnExtraction: func(_ context.Context, ev *domain.ExtractionEvent) {
			outcome := "no_extraction"
			if ev.Succeeded {
				outcome = "ok"
			}
			m.Extractions.WithLabelValues(ev.StateID, outcome).Inc()
		},
		OnActionEmit: func(_ context.Context, ev *domain.ActionEvent) {
			m.ActionsEmitted.WithLabelValues(ev.Action).Inc()
		},
	}
}

// MergeHooks chains two hook sets; both run, a before b.
func MergeHooks(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, ev *domain.StateEvent) {
			if a.OnStateEnter != nil {
				a.OnStateEnter(ctx, ev)
			}
			if b.OnStateEnter != nil {
				b.OnStateEnter(ctx, ev)
			}
		},
		OnValidationFail: func(ctx context.Context, ev *domain.ValidationEvent) {
			if a.OnValidationFail != nil {
				a.OnValidationFail(ctx, ev)
			}
			if b.OnValidationFail != nil {
				b.OnValidationFail(ctx, ev)
			}
		},
		OnExtraction: func(ctx context.Context, ev *domain.ExtractionEvent) {
			if a.OnExtraction != nil {
				a.OnExtraction(ctx, ev)
			}
			if b.OnExtraction != nil {
				b.OnExtraction(ctx, ev)
			}
		},
		OnActionEmit: func(ctx context.Context, ev *domain.ActionEvent) {
			if a.OnActionEmit != nil {
				a.OnActionEmit(ctx, ev)
			}
			if b.OnActionEmit != nil {
				b.OnActionEmit(ctx, ev)
			}
		},
	}
}
