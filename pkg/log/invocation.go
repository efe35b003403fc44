package log

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
)

// CorrelationIDEnv lets a parent process hand its correlation ID down to a
// nested vaultenv invocation (for example `vaultenv exec -- vaultenv get x`).
const CorrelationIDEnv = "VAULTENV_CORRELATION_ID"

// Invocation tracks one CLI command from start to finish.
type Invocation struct {
	ctx   context.Context
	log   Logger
	start time.Time
}

// StartInvocation tags ctx with a correlation ID and a command-scoped
// logger. The correlation ID is inherited from CorrelationIDEnv when set,
// otherwise a new one is generated.
func StartInvocation(ctx context.Context, base Logger, command string) *Invocation {
	correlationID := os.Getenv(CorrelationIDEnv)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx = ContextWithCorrelationID(ctx, correlationID)
	ctx = ContextWithCommand(ctx, command)

	invLog := base.WithContext(ctx)
	ctx = ContextWithLogger(ctx, invLog)

	invLog.Debug().Msg("command started")

	return &Invocation{ctx: ctx, log: invLog, start: time.Now()}
}

// Context returns the invocation-scoped context.
func (i *Invocation) Context() context.Context {
	return i.ctx
}

// Logger returns the invocation-scoped logger.
func (i *Invocation) Logger() Logger {
	return i.log
}

// Finish logs completion at debug level. The caller reports err to the
// user, so it is only attached here for correlation.
func (i *Invocation) Finish(err error) {
	ev := i.log.Debug().Bool("failed", err != nil)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Dur("duration", time.Since(i.start)).Msg("command completed")
}
