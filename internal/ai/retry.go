package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// RetryConfig controls WithRetry.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration // per attempt; zero disables
}

func (rc RetryConfig) options(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrInvalidResponse)
		}),
	}
}

// retryingProvider decorates a provider with per-attempt timeouts and retries.
type retryingProvider struct {
	next models.AIProvider
	cfg  RetryConfig
}

// WithRetry wraps p so transient failures are retried. Invalid responses are
// not retried; the caller's fallback handles them.
func WithRetry(p models.AIProvider, cfg RetryConfig) models.AIProvider {
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	return &retryingProvider{next: p, cfg: cfg}
}

func (r *retryingProvider) Name() string { return r.next.Name() }

func (r *retryingProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	attempt := 0
	return retry.DoWithData(func() (string, error) {
		attempt++
		callCtx := ctx
		if r.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()
		}

		text, err := r.next.Complete(callCtx, req)
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrInferenceTimeout) {
			err = errors.Join(ErrInferenceTimeout, err)
		}
		if err != nil {
			slog.Debug("ai call failed", "provider", r.next.Name(), "attempt", attempt, "error", err)
		}
		return text, err
	}, r.cfg.options(ctx)...)
}
