package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/markuphq/markup/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"too many requests", &googleapi.Error{Code: 429}, true},
		{"internal server error", &googleapi.Error{Code: 500}, true},
		{"service unavailable", &googleapi.Error{Code: 503}, true},
		{"bad gateway", &googleapi.Error{Code: 502}, false},
		{"not found", &googleapi.Error{Code: 404}, false},
		{"conflict", &googleapi.Error{Code: 409}, false},
		{"wrapped http", fmt.Errorf("get operation: %w", &googleapi.Error{Code: 503}), true},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection refused"), true},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc internal", status.Error(codes.Internal, "oops"), true},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "no"), false},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
		{"network timeout", timeoutErr{}, true},
		{"context cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"plain", errors.New("boom"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.transient, IsTransient(tc.err))
		})
	}
}

func newExecutor(attempts int, sleeps *[]time.Duration, m *metrics.Metrics) *Executor {
	return New(Policy{MaxAttempts: attempts, Initial: time.Second, Max: 4 * time.Second, Multiplier: 2},
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return ctx.Err()
		}),
		WithMetrics(m),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestDo(t *testing.T) {
	unavailable := &googleapi.Error{Code: 503, Message: "backend unavailable"}
	forbidden := &googleapi.Error{Code: 403, Message: "forbidden"}

	for _, tc := range []struct {
		name     string
		attempts int
		errs     []error
		calls    int
		exhaust  bool
		expected error
	}{
		{
			name:     "first try",
			attempts: 3,
			errs:     []error{nil},
			calls:    1,
		},
		{
			name:     "recovers after transient errors",
			attempts: 3,
			errs:     []error{unavailable, unavailable, nil},
			calls:    3,
		},
		{
			name:     "non transient error is returned immediately",
			attempts: 3,
			errs:     []error{forbidden},
			calls:    1,
			expected: forbidden,
		},
		{
			name:     "transient then fatal",
			attempts: 5,
			errs:     []error{unavailable, forbidden},
			calls:    2,
			expected: forbidden,
		},
		{
			name:     "exhausted",
			attempts: 3,
			errs:     []error{unavailable, unavailable, unavailable, nil},
			calls:    3,
			exhaust:  true,
			expected: unavailable,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var sleeps []time.Duration
			m := metrics.Noop()
			e := newExecutor(tc.attempts, &sleeps, m)

			calls := 0
			res, err := Do(context.Background(), e, "get operation", func(ctx context.Context) (string, error) {
				err := tc.errs[calls]
				calls++
				if err != nil {
					return "", err
				}
				return "done", nil
			})

			assert.Equal(t, tc.calls, calls)
			assert.Len(t, sleeps, countTransient(tc.errs[:calls])-boolToInt(tc.exhaust))

			if tc.expected == nil {
				require.NoError(t, err)
				assert.Equal(t, "done", res)
				return
			}

			assert.Empty(t, res)
			assert.ErrorIs(t, err, tc.expected)

			var exhausted *ExhaustedError
			assert.Equal(t, tc.exhaust, errors.As(err, &exhausted))
			if tc.exhaust {
				assert.Equal(t, tc.attempts, exhausted.Attempts)
				assert.Equal(t, "get operation", exhausted.Request)
				assert.Equal(t, float64(tc.attempts-1), testutil.ToFloat64(m.RequestRetry))
			}
		})
	}
}

func countTransient(errs []error) int {
	n := 0
	for _, err := range errs {
		if IsTransient(err) {
			n++
		}
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestDoBackoffIsBounded(t *testing.T) {
	var sleeps []time.Duration
	e := newExecutor(10, &sleeps, nil)

	err := e.Run(context.Background(), "batch enable", func(ctx context.Context) error {
		return status.Error(codes.Unavailable, "try again")
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, sleeps, 9)
	for _, d := range sleeps {
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	e := New(Policy{MaxAttempts: 5, Initial: time.Second, Max: time.Second, Multiplier: 1},
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	err := e.Run(ctx, "get job", func(ctx context.Context) error {
		calls++
		return &googleapi.Error{Code: 429}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRequestsMetric(t *testing.T) {
	var sleeps []time.Duration
	m := metrics.Noop()
	e := newExecutor(3, &sleeps, m)

	_ = e.Run(context.Background(), "a", func(ctx context.Context) error { return nil })
	_ = e.Run(context.Background(), "b", func(ctx context.Context) error { return errors.New("fatal") })

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("error")))
}
