// Package cranker resolves outstanding randomness requests in the
// background. Consume is permissionless and idempotent, so the service
// cranks its own requests rather than waiting for players to do it;
// a player racing the cranker is harmless.
package cranker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/wildgrid/wildcatch/internal/game"
)

// Cranker polls for unconsumed requests and resolves them once their
// randomness arrives.
type Cranker struct {
	game     *game.Game
	interval time.Duration
	backoff  time.Duration
	logger   *log.Logger
}

// New creates a cranker scanning for work every interval.
func New(g *game.Game, interval time.Duration, logger *log.Logger) *Cranker {
	if logger == nil {
		logger = log.Default()
	}
	return &Cranker{
		game:     g,
		interval: interval,
		backoff:  50 * time.Millisecond,
		logger:   logger,
	}
}

// Run cranks until the context is canceled.
func (c *Cranker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, seq := range c.game.PendingRequests() {
				c.crank(ctx, seq)
			}
		}
	}
}

// crank attempts one request, backing off while the oracle has not
// answered. Losing the consume race to another caller counts as done.
func (c *Cranker) crank(ctx context.Context, seq uint64) {
	b := retry.WithMaxRetries(5, retry.NewExponential(c.backoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.game.Consume(seq, game.ConsumeOptions{})
		if errors.Is(err, game.ErrNotReady) {
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		c.logger.Printf("cranked request seq=%d", seq)
	case errors.Is(err, game.ErrAlreadyFulfilled):
		// Someone else consumed it first.
	case errors.Is(err, game.ErrNotReady):
		// Still pending; the next scan picks it up again.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		c.logger.Printf("crank failed seq=%d err=%v", seq, err)
	}
}
