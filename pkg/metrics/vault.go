package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decrypt outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeNotFound     = "not_found"
	OutcomeDecryptError = "decrypt_error"
	OutcomeParseError   = "parse_error"
)

// VaultMetrics holds metrics for secrets materialization.
type VaultMetrics struct {
	DecryptTotal    *prometheus.CounterVec
	DecryptDuration prometheus.Histogram
	SecretsLoaded   prometheus.Gauge
	ExportedTotal   prometheus.Counter
}

func newVaultMetrics(registry *prometheus.Registry) *VaultMetrics {
	m := &VaultMetrics{
		DecryptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultenv",
				Subsystem: "vault",
				Name:      "loads_total",
				Help:      "Total number of secrets loads by outcome.",
			},
			[]string{"outcome"},
		),

		DecryptDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "vaultenv",
				Subsystem: "vault",
				Name:      "decrypt_duration_seconds",
				Help:      "Duration of the external decryption command.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		SecretsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vaultenv",
				Subsystem: "vault",
				Name:      "secrets_loaded",
				Help:      "Number of top-level keys in the last decrypted document.",
			},
		),

		ExportedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vaultenv",
				Subsystem: "vault",
				Name:      "env_exported_total",
				Help:      "Total number of environment variables written.",
			},
		),
	}

	registry.MustRegister(
		m.DecryptTotal,
		m.DecryptDuration,
		m.SecretsLoaded,
		m.ExportedTotal,
	)

	return m
}

// RecordLoad records the outcome of one load.
func (m *VaultMetrics) RecordLoad(outcome string) {
	m.DecryptTotal.WithLabelValues(outcome).Inc()
}

// RecordDecrypt records how long the decryption command took.
func (m *VaultMetrics) RecordDecrypt(durationSeconds float64) {
	m.DecryptDuration.Observe(durationSeconds)
}

// SetSecretsLoaded sets the key count of the last decrypted document.
func (m *VaultMetrics) SetSecretsLoaded(count int) {
	m.SecretsLoaded.Set(float64(count))
}

// RecordExported records environment variables written by an export.
func (m *VaultMetrics) RecordExported(count int) {
	m.ExportedTotal.Add(float64(count))
}
