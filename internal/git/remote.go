package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

// FetchOptions controls how often a fetch is retried
type FetchOptions struct {
	Retries int
	Delay   time.Duration
	Logger  *slog.Logger
}

// ValidateRemote checks that the remote is configured
func ValidateRemote(ctx context.Context, runner *CommandRunner, remote string) error {
	if _, err := runner.Run(ctx, "remote", "get-url", remote); err != nil {
		return fmt.Errorf("remote %q is not configured: %w", remote, err)
	}
	return nil
}

// FetchRemote fetches remote, retrying transient failures
func FetchRemote(ctx context.Context, runner *CommandRunner, remote string, opts FetchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	if err := ValidateRemote(ctx, runner, remote); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("fetch failed, retrying",
				slog.String("remote", remote),
				slog.Int("attempt", attempt),
				slog.Int("retries", opts.Retries))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
		if _, err = runner.Run(ctx, "fetch", remote); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to fetch %s after %d attempts: %w", remote, opts.Retries+1, err)
}
