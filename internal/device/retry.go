package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/protocol"
)

const (
	// DefaultRetries is the number of extra attempts after the first
	DefaultRetries = 2

	defaultRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = time.Second
)

// withRetry runs fn until it succeeds, fails permanently or the attempt
// budget is spent. Attempts after the first start from a fresh socket.
func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxInterval = maxRetryInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		if attempt > 1 {
			if err := c.conn.Reconnect(ctx); err != nil {
				if protocol.IsRetryable(err) {
					return struct{}{}, err
				}
				return struct{}{}, backoff.Permanent(err)
			}
		}

		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !protocol.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		c.log.Debug("Request failed, will retry",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.retries+1)),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if protocol.IsRetryable(err) {
		c.log.Warn("Device unreachable",
			zap.String("op", op),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return protocol.Wrap(protocol.KindUnreachable, err, fmt.Sprintf("%s %s after %d attempts", op, c.addr, attempt))
	}
	return err
}
