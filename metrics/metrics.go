// Package metrics exports digest measurements to Prometheus.
package metrics

import (
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ardnew/digest/scope"
)

// Namespace prefixes every metric name.
const Namespace = "digest"

// Digest outcomes.
const (
	OutcomeConverged    = "converged"
	OutcomeNotConverged = "not_converged"
	OutcomeError        = "error"
)

// Recorder is a [scope.Recorder] backed by a private registry.
type Recorder struct {
	registry *prometheus.Registry

	Digests          *prometheus.CounterVec
	DigestRounds     prometheus.Histogram
	DigestDuration   prometheus.Histogram
	WatchEvaluations prometheus.Counter
	CallbackErrors   *prometheus.CounterVec
}

// New returns a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Digests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "digests_total",
				Help:      "Total number of digests by outcome.",
			},
			[]string{"outcome"},
		),
		DigestRounds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "digest_rounds",
				Help:      "Dirty-check rounds run per digest.",
				Buckets:   prometheus.LinearBuckets(1, 1, scope.TTL),
			},
		),
		DigestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "digest_duration_seconds",
				Help:      "Time spent per digest.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
		WatchEvaluations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "watch_evaluations_total",
				Help:      "Total number of watch functions evaluated.",
			},
		),
		CallbackErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "callback_errors_total",
				Help:      "Total number of contained callback failures by kind.",
			},
			[]string{"kind"},
		),
	}

	r.registry.MustRegister(
		r.Digests,
		r.DigestRounds,
		r.DigestDuration,
		r.WatchEvaluations,
		r.CallbackErrors,
	)

	return r
}

// Registry returns the registry holding r's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveDigest implements [scope.Recorder].
func (r *Recorder) ObserveDigest(rounds int, elapsed time.Duration, err error) {
	r.Digests.WithLabelValues(outcome(err)).Inc()
	r.DigestRounds.Observe(float64(rounds))
	r.DigestDuration.Observe(elapsed.Seconds())
}

// AddWatchEvaluations implements [scope.Recorder].
func (r *Recorder) AddWatchEvaluations(n int) {
	r.WatchEvaluations.Add(float64(n))
}

// IncCallbackErrors implements [scope.Recorder].
func (r *Recorder) IncCallbackErrors(kind string) {
	r.CallbackErrors.WithLabelValues(kind).Inc()
}

// WriteText writes every metric in r's registry to w in the Prometheus
// text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}

	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeConverged
	case errors.Is(err, scope.ErrNotConverging):
		return OutcomeNotConverged
	default:
		return OutcomeError
	}
}
