// Package retry executes single cloud api calls, retrying transport level
// failures that are known to be transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/markuphq/markup/internal/metrics"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Policy struct {
	MaxAttempts int           `flag:"max-attempts" desc:"maximum number of attempts per request" default:"5" validate:"gte=1"`
	Initial     time.Duration `flag:"initial" desc:"initial backoff between attempts" default:"1s" validate:"gt=0"`
	Max         time.Duration `flag:"max" desc:"maximum backoff between attempts" default:"30s" validate:"gtefield=Initial"`
	Multiplier  float64       `flag:"multiplier" desc:"backoff multiplier" default:"2" validate:"gte=1"`
	Rate        float64       `flag:"rate" desc:"maximum requests per second, 0 disables pacing" default:"0" validate:"gte=0"`
}

func (p Policy) backoff() *gax.Backoff {
	return &gax.Backoff{
		Initial:    p.Initial,
		Max:        p.Max,
		Multiplier: p.Multiplier,
	}
}

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Request  string
	Attempts int
	Wrapped  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Request, e.Attempts, e.Wrapped)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Wrapped
}

var transientHTTP = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
}

var transientGRPC = map[codes.Code]bool{
	codes.ResourceExhausted: true,
	codes.Internal:          true,
	codes.Unavailable:       true,
}

// IsTransient reports whether err is worth retrying. Context errors are never
// transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientHTTP[apiErr.Code]
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.OK && s.Code() != codes.Unknown {
		return transientGRPC[s.Code()]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

type Sleeper func(ctx context.Context, d time.Duration) error

type Executor struct {
	policy  Policy
	limiter *rate.Limiter
	sleep   Sleeper
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Executor)

func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleep = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

func New(policy Policy, opts ...Option) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	e := &Executor{
		policy: policy,
		sleep:  gax.Sleep,
		logger: slog.Default(),
	}
	if policy.Rate > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(policy.Rate), max(1, int(policy.Rate)))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do calls fn until it succeeds, fails with a non transient error or the
// attempts of the executor's policy are used up.
func Do[T any](ctx context.Context, e *Executor, request string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	bo := e.policy.backoff()

	for attempt := 1; ; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		res, err := fn(ctx)
		if err == nil {
			e.observe("ok")
			return res, nil
		}

		if !IsTransient(err) {
			e.observe("error")
			return zero, err
		}

		e.observe("transient")
		if attempt >= e.policy.MaxAttempts {
			return zero, &ExhaustedError{Request: request, Attempts: attempt, Wrapped: err}
		}

		pause := bo.Pause()
		e.logger.Warn("transient error, retrying", "request", request, "attempt", attempt, "backoff", pause, "error", err)
		if e.metrics != nil {
			e.metrics.RequestRetry.Inc()
		}
		if err := e.sleep(ctx, pause); err != nil {
			return zero, err
		}
	}
}

// Run is Do for calls without a result.
func (e *Executor) Run(ctx context.Context, request string, fn func(context.Context) error) error {
	_, err := Do(ctx, e, request, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (e *Executor) observe(status string) {
	if e.metrics != nil {
		e.metrics.Requests.WithLabelValues(status).Inc()
	}
}
