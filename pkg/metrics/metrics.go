// Package metrics provides Prometheus metrics for vaultenv.
//
// vaultenv is a short-lived CLI, so instead of serving /metrics it can dump
// the registry to a node-exporter textfile when the command finishes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for vaultenv.
type Metrics struct {
	registry *prometheus.Registry

	Vault *VaultMetrics
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	return &Metrics{
		registry: registry,
		Vault:    newVaultMetrics(registry),
	}
}

// WriteTextfile writes the registry in text exposition format to path.
// The file is written atomically so a collector never sees a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
