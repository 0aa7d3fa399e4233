// Package metrics exposes slice reducer activity as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slicekit"

// Recorder counts reduced actions per slice, kind and outcome. It satisfies
// slicekit.Recorder.
type Recorder struct {
	actions *prometheus.CounterVec
}

// NewRecorder builds a Recorder and registers its collectors with reg. A nil
// reg registers with prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Reduced slice actions by slice, kind and outcome",
			},
			[]string{"slice", "kind", "outcome"},
		),
	}
	if err := reg.Register(r.actions); err != nil {
		return nil, fmt.Errorf("metrics: register actions counter: %w", err)
	}
	return r, nil
}

// RecordAction increments the counter for one reduced action.
func (r *Recorder) RecordAction(slice, kind, outcome string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(slice, kind, outcome).Inc()
}

// Actions exposes the underlying counter vector.
func (r *Recorder) Actions() *prometheus.CounterVec {
	return r.actions
}
