package operation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/markuphq/markup/internal/metrics"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type options struct {
	sleep   Sleeper
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*options)

func WithSleeper(s Sleeper) Option {
	return func(o *options) { o.sleep = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Poll waits for the operation identified by h to reach a terminal state.
//
// Every iteration fetches the current payload, normalizes it with adapt and
// either returns or sleeps for policy.Interval. Only non-terminal polls count
// against policy.MaxAttempts. Fetch and adapter errors are returned as is;
// transient transport failures are expected to be retried inside fetch.
// Failure and timeout are reported through the Outcome, not the error.
func Poll[T any](ctx context.Context, h Handle, policy Policy, fetch Fetcher[T], adapt Adapter[T], opts ...Option) (Outcome, error) {
	if err := policy.Validate(); err != nil {
		return Outcome{}, err
	}

	o := &options{
		sleep:  gax.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger.With("operation", h.String(), "kind", h.Kind)
	logger.Debug("waiting for operation", "interval", policy.Interval, "max", policy.MaxAttempts, "budget", policy.Budget())
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		raw, err := fetch(ctx, h)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to fetch status of %s: %w", h, err)
		}

		status, err := adapt.Status(raw)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to interpret status of %s: %w", h, err)
		}

		switch status.State {
		case Succeeded:
			logger.Info("operation succeeded", "attempts", attempts)
			return o.done(h, Outcome{Kind: Success, Handle: h, Status: status, Attempts: attempts}), nil
		case Failed, Cancelled:
			reason := fmt.Sprintf("operation %s %s", h, status.State)
			if status.Message != "" {
				reason = fmt.Sprintf("%s: %s", reason, status.Message)
			}
			logger.Error("operation did not succeed", "state", status.State, "error", status.Message, "attempts", attempts)
			return o.done(h, Outcome{Kind: Failure, Handle: h, Status: status, Reason: reason, Attempts: attempts}), nil
		}

		attempts++
		if o.metrics != nil {
			o.metrics.PollAttempts.WithLabelValues(string(h.Kind)).Inc()
		}

		if attempts >= policy.MaxAttempts {
			logger.Warn("operation still in progress, giving up", "state", status.State, "attempts", attempts)
			return o.done(h, Outcome{Kind: TimedOut, Handle: h, Status: status, Attempts: attempts}), nil
		}

		logger.Info("operation in progress", "state", status.State, "attempt", attempts, "max", policy.MaxAttempts, "next", policy.Interval)
		if err := o.sleep(ctx, policy.Interval); err != nil {
			return Outcome{}, err
		}
	}
}

func (o *options) done(h Handle, out Outcome) Outcome {
	if o.metrics != nil {
		o.metrics.PollOutcomes.WithLabelValues(string(h.Kind), out.Kind.String()).Inc()
	}
	return out
}
