package goIdentity

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// SweepExpired deletes every expired token and returns how many were removed.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	select {
	case <-e.closed:
		return 0, ErrEngineClosed
	default:
	}

	n, err := e.tokens.Sweep(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		e.metricAdd(MetricTokensSwept, n)
		e.emitAudit(ctx, auditEventTokensSwept, true, 0, "", nil, func() map[string]string {
			return map[string]string{"count": strconv.Itoa(n)}
		})
	}
	return n, nil
}

func (e *Engine) startSweeper(interval time.Duration) {
	e.sweepWG.Add(1)
	go func() {
		defer e.sweepWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.closed:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				n, err := e.SweepExpired(ctx)
				cancel()
				switch {
				case errors.Is(err, ErrEngineClosed):
					return
				case err != nil:
					e.logger.Error(ctx, "token sweep failed", "error", err)
				case n > 0:
					e.logger.Info(ctx, "expired tokens swept", "count", n)
				}
			}
		}
	}()
}
