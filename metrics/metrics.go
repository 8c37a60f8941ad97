// Package metrics counts proofs and aggregations and times the operations
// that produce them.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"go.uber.org/zap"
)

const (
	KindSchnorr   = "schnorr"
	KindStatement = "statement"
	KindAggregate = "aggregate"

	ResultValid     = "valid"
	ResultInvalid   = "invalid"
	ResultMalformed = "malformed"
	ResultError     = "error"
)

type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	textfile string

	proofsGenerated  *prometheus.CounterVec
	proofsVerified   *prometheus.CounterVec
	aggregations     *prometheus.CounterVec
	aggregatedProofs prometheus.Counter
	challenges       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a private registry. A nil or
// disabled config still returns usable collectors; they are simply never
// exported.
func NewMetrics(logger *zap.Logger, cfg *config.MetricsConfig) *Metrics {
	namespace := "zkp"
	textfile := ""
	if cfg != nil {
		if cfg.Namespace != "" {
			namespace = cfg.Namespace
		}
		if cfg.Enabled {
			textfile = cfg.TextfilePath
		}
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		logger:   logger,
		registry: registry,
		textfile: textfile,
		proofsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proofs",
				Name:      "generated_total",
				Help:      "Number of proofs generated",
			},
			[]string{"kind", "result"},
		),
		proofsVerified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proofs",
				Name:      "verified_total",
				Help:      "Number of proofs checked, by outcome",
			},
			[]string{"kind", "result"},
		),
		aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregator",
				Name:      "batches_total",
				Help:      "Number of aggregation attempts, by outcome",
			},
			[]string{"result"},
		),
		aggregatedProofs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregator",
				Name:      "proofs_total",
				Help:      "Number of statement proofs folded into aggregates",
			},
		),
		challenges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "challenges_total",
				Help:      "Challenges issued and redeemed, by outcome",
			},
			[]string{"op", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "proofs",
				Name:      "duration_seconds",
				Help:      "Time spent per operation in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"kind", "op"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveProve(kind string, start time.Time, err error) {
	m.proofsGenerated.WithLabelValues(kind, resultOf(true, err)).Inc()
	m.duration.WithLabelValues(kind, "prove").Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveVerify(kind string, start time.Time, ok bool, err error) {
	m.proofsVerified.WithLabelValues(kind, resultOf(ok, err)).Inc()
	m.duration.WithLabelValues(kind, "verify").Observe(time.Since(start).Seconds())
}

// ObserveAggregate records one batch of n proofs.
func (m *Metrics) ObserveAggregate(start time.Time, n int, err error) {
	result := resultOf(true, err)
	if errors.Is(err, zkerr.ErrInvalidProof) {
		result = ResultInvalid
	}

	m.aggregations.WithLabelValues(result).Inc()
	if err == nil {
		m.aggregatedProofs.Add(float64(n))
	}
	m.duration.WithLabelValues(KindAggregate, "aggregate").Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveChallenge(op string, err error) {
	m.challenges.WithLabelValues(op, resultOf(true, err)).Inc()
}

// Flush writes the registry to the configured textfile, if any, in the text
// exposition format.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		m.logger.Error("could not write metrics", zap.Error(err))
		return errors.Wrap(err, "flush")
	}

	return nil
}

func resultOf(ok bool, err error) string {
	switch {
	case errors.Is(err, zkerr.ErrInvalidEncoding):
		return ResultMalformed
	case errors.Is(err, zkerr.ErrVerificationFailed):
		return ResultInvalid
	case err != nil:
		return ResultError
	case !ok:
		return ResultInvalid
	}

	return ResultValid
}
