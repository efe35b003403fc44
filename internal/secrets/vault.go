package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elysia/vaultenv/internal/config"
	"github.com/elysia/vaultenv/pkg/log"
	"github.com/elysia/vaultenv/pkg/metrics"
	"github.com/elysia/vaultenv/pkg/tracing"
)

// Config configures a Materializer.
type Config struct {
	// ProjectRoot anchors relative paths. Empty means the working directory.
	ProjectRoot string
	// SecretsPath is the encrypted document (default: secrets.yml).
	SecretsPath string
	// PasswordPath is the password file (default: .vault_password).
	PasswordPath string
	// Command is the decryption command argv (default: ansible-vault).
	Command []string

	Runner  Runner
	Env     Environment
	Logger  log.Logger
	Metrics *metrics.VaultMetrics
}

// Materializer decrypts an ansible-vault document on demand.
type Materializer struct {
	secretsPath  string
	passwordPath string
	command      []string
	runner       Runner
	env          Environment
	logger       log.Logger
	metrics      *metrics.VaultMetrics
}

// ConfigFromVault builds a Config from the vault section of the application
// configuration.
func ConfigFromVault(vc config.VaultConfig) (Config, error) {
	command, err := vc.CommandArgs()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ProjectRoot:  vc.ProjectRoot,
		SecretsPath:  vc.SecretsFile,
		PasswordPath: vc.PasswordFile,
		Command:      command,
	}, nil
}

// New resolves the secrets and password paths to absolute paths. The files
// are not checked here; that happens on every Load.
func New(cfg Config) (*Materializer, error) {
	root := cfg.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	secretsPath := cfg.SecretsPath
	if secretsPath == "" {
		secretsPath = config.DefaultSecretsFile
	}
	passwordPath := cfg.PasswordPath
	if passwordPath == "" {
		passwordPath = config.DefaultPasswordFile
	}

	command := cfg.Command
	if len(command) == 0 {
		command = []string{config.DefaultDecryptCommand}
	}

	m := &Materializer{
		secretsPath:  anchor(root, secretsPath),
		passwordPath: anchor(root, passwordPath),
		command:      append([]string(nil), command...),
		runner:       cfg.Runner,
		env:          cfg.Env,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
	if m.runner == nil {
		m.runner = ExecRunner{}
	}
	if m.env == nil {
		m.env = OSEnvironment{}
	}
	if m.logger == nil {
		m.logger = log.NewNop()
	}

	return m, nil
}

func anchor(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// SecretsPath returns the resolved encrypted document path.
func (m *Materializer) SecretsPath() string { return m.secretsPath }

// PasswordPath returns the resolved password file path.
func (m *Materializer) PasswordPath() string { return m.passwordPath }

// Command returns the decryption command argv, without the view arguments.
func (m *Materializer) Command() []string { return append([]string(nil), m.command...) }

// Load decrypts the secrets document and returns its top-level entries.
func (m *Materializer) Load(ctx context.Context) (Mapping, error) {
	ctx, span := tracing.StartSpan(ctx, "secrets.load", tracing.WithAttributes(
		tracing.AttrSecretsFile.String(m.secretsPath),
		tracing.AttrPasswordFile.String(m.passwordPath),
		tracing.AttrCommand.String(m.command[0]),
	))
	defer span.End()

	logger := m.logger.WithContext(ctx)

	mapping, err := m.load(ctx, logger)
	m.recordLoad(err)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(tracing.AttrKeyCount.Int(len(mapping)))
	if m.metrics != nil {
		m.metrics.SetSecretsLoaded(len(mapping))
	}
	logger.Debug().Int("keys", len(mapping)).Str("secrets_file", m.secretsPath).Msg("secrets loaded")

	return mapping, nil
}

func (m *Materializer) load(ctx context.Context, logger log.Logger) (Mapping, error) {
	if err := checkExists("secrets file", m.secretsPath); err != nil {
		return nil, err
	}
	if err := checkExists("password file", m.passwordPath); err != nil {
		return nil, err
	}

	args := append(append([]string(nil), m.command[1:]...),
		"view", m.secretsPath,
		"--vault-password-file", m.passwordPath,
	)

	logger.Debug().Str("command", m.command[0]).Strs("args", args).Msg("running decryption command")

	start := time.Now()
	stdout, stderr, err := m.runner.Run(ctx, m.command[0], args...)
	if m.metrics != nil {
		m.metrics.RecordDecrypt(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, &DecryptionError{
			Command:  m.command[0],
			ExitCode: exitCode(err),
			Stderr:   string(stderr),
			Err:      err,
		}
	}

	return ParseDocument(stdout)
}

func checkExists(kind, path string) error {
	if _, err := os.Stat(path); err != nil {
		return &NotFoundError{Kind: kind, Path: path, Err: err}
	}
	return nil
}

func (m *Materializer) recordLoad(err error) {
	if m.metrics == nil {
		return
	}
	switch {
	case err == nil:
		m.metrics.RecordLoad(metrics.OutcomeSuccess)
	case errors.Is(err, ErrNotFound):
		m.metrics.RecordLoad(metrics.OutcomeNotFound)
	case errors.Is(err, ErrDecryption):
		m.metrics.RecordLoad(metrics.OutcomeDecryptError)
	case errors.Is(err, ErrParse):
		m.metrics.RecordLoad(metrics.OutcomeParseError)
	}
}

// Environ loads the secrets and converts them to environment assignments
// without touching the process environment.
func (m *Materializer) Environ(ctx context.Context) ([]EnvVar, error) {
	mapping, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ToEnv(mapping), nil
}

// ExportToEnvironment loads the secrets and writes each entry into the
// environment under its upper-cased key, overwriting existing values. It
// returns the distinct variable names written. Writes are not rolled back:
// if one fails, the variables already set stay set.
func (m *Materializer) ExportToEnvironment(ctx context.Context) ([]string, error) {
	vars, err := m.Environ(ctx)
	if err != nil {
		return nil, err
	}

	logger := m.logger.WithContext(ctx)
	seen := make(map[string]string, len(vars))
	names := make([]string, 0, len(vars))
	written := 0
	defer func() {
		if m.metrics != nil {
			m.metrics.RecordExported(written)
		}
	}()

	for _, v := range vars {
		if err := m.env.Setenv(v.Name, v.Value); err != nil {
			return names, fmt.Errorf("export %s: %w", v.Name, err)
		}
		written++

		if prev, dup := seen[v.Name]; dup {
			logger.Warn().
				Str("name", v.Name).
				Str("key", v.Key).
				Str("overwritten_key", prev).
				Msg("secret keys collide after upper-casing; last key wins")
		} else {
			names = append(names, v.Name)
		}
		seen[v.Name] = v.Key
	}

	logger.Debug().Int("count", len(names)).Msg("secrets exported to environment")
	return names, nil
}

// Resolve returns the textual value of ref.Key from a fresh Load.
func (m *Materializer) Resolve(ctx context.Context, ref Reference) (string, error) {
	if ref.Provider != "" && ref.Provider != ProviderAnsibleVault {
		return "", fmt.Errorf("unsupported secret provider: %s", ref.Provider)
	}
	if ref.Key == "" {
		return "", errors.New("secret key is required")
	}

	mapping, err := m.Load(ctx)
	if err != nil {
		return "", err
	}

	value, ok := mapping[ref.Key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref.Key)
	}
	return FormatValue(value), nil
}

var _ Store = (*Materializer)(nil)
