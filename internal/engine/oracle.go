package engine

import (
	"context"
	"errors"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/llm"
)

var errNoOracle = errors.New("no completion oracle configured")

// callOracle runs one oracle call under the configured timeout. The
// timeout is derived from ctx, so a cancelled request aborts the call.
func (e env) callOracle(ctx context.Context, oracle llm.Completer, timeout time.Duration, operation, system, input string) (string, error) {
	if oracle == nil {
		return "", errNoOracle
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := oracle.Complete(callCtx, system, input)
	e.metrics.RecordOracleCall(operation, time.Since(start), err)
	return reply, err
}
