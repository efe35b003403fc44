package secrets

import (
	"context"
	"sync"

	"github.com/elysia/vaultenv/internal/config"
	"github.com/elysia/vaultenv/pkg/log"
)

var (
	defaultMu           sync.Mutex
	defaultMaterializer *Materializer
)

// Default returns the shared Materializer, building it from the VAULTENV_*
// environment on first use. A failed build is not remembered, so a later
// call can succeed once the configuration is fixed.
func Default() (*Materializer, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMaterializer != nil {
		return defaultMaterializer, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	mcfg, err := ConfigFromVault(cfg.Vault)
	if err != nil {
		return nil, err
	}
	mcfg.Logger = log.New(cfg.Log.Level, cfg.Log.Format)

	m, err := New(mcfg)
	if err != nil {
		return nil, err
	}
	defaultMaterializer = m
	return m, nil
}

// SetDefault replaces the shared Materializer. Passing nil resets it so the
// next Default call rebuilds from the environment.
func SetDefault(m *Materializer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultMaterializer = m
}

// LoadSecrets decrypts the secrets with the shared Materializer.
func LoadSecrets(ctx context.Context) (Mapping, error) {
	m, err := Default()
	if err != nil {
		return nil, err
	}
	return m.Load(ctx)
}

// SetupEnv exports the secrets into the process environment with the shared
// Materializer.
func SetupEnv(ctx context.Context) error {
	m, err := Default()
	if err != nil {
		return err
	}
	_, err = m.ExportToEnvironment(ctx)
	return err
}
