package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/elysia/vaultenv/internal/config"
	"github.com/elysia/vaultenv/internal/secrets"
	"github.com/elysia/vaultenv/pkg/log"
	"github.com/elysia/vaultenv/pkg/metrics"
	"github.com/elysia/vaultenv/pkg/tracing"
)

const shutdownTimeout = 5 * time.Second

// runtimeState holds everything a subcommand needs for one invocation.
type runtimeState struct {
	cfg          *config.Config
	logger       log.Logger
	metrics      *metrics.Metrics
	tracer       *tracing.Tracer
	materializer *secrets.Materializer
	inv          *log.Invocation
	ctx          context.Context
	span         trace.Span
}

func newRuntime(ctx context.Context, cfg *config.Config, command string, logOut io.Writer) (*runtimeState, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := log.NewWithWriter(cfg.Log.Level, cfg.Log.Format, logOut)
	m := metrics.NewMetrics()

	tracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "vaultenv",
		ServiceVersion: Version,
		Endpoint:       cfg.Observability.TracingEndpoint,
		Insecure:       cfg.Observability.TracingInsecure,
		SampleRate:     cfg.Observability.TracingSampleRate,
		Environment:    cfg.Observability.Environment,
		Enabled:        cfg.TracingEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	mcfg, err := secrets.ConfigFromVault(cfg.Vault)
	if err != nil {
		return nil, err
	}
	mcfg.Logger = logger
	mcfg.Metrics = m.Vault

	mat, err := secrets.New(mcfg)
	if err != nil {
		return nil, err
	}
	secrets.SetDefault(mat)

	inv := log.StartInvocation(ctx, logger, command)
	spanCtx, span := tracer.StartSpan(inv.Context(), "vaultenv."+command)

	return &runtimeState{
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		tracer:       tracer,
		materializer: mat,
		inv:          inv,
		ctx:          spanCtx,
		span:         span,
	}, nil
}

// close flushes metrics and traces. Failures are logged, not returned, so
// they never mask the command's own result.
func (r *runtimeState) close(cmdErr error) {
	logger := r.inv.Logger()

	if cmdErr != nil {
		tracing.RecordError(r.span, cmdErr)
	}
	r.span.End()

	if path := r.cfg.Metrics.TextfilePath; path != "" {
		if err := r.metrics.WriteTextfile(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.tracer.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to flush traces")
	}

	secrets.SetDefault(nil)
	r.inv.Finish(cmdErr)
}
