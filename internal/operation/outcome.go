package operation

import (
	"errors"
	"fmt"
	"time"
)

// Policy bounds a single wait. MaxAttempts counts non-terminal polls only.
type Policy struct {
	Interval    time.Duration `flag:"interval" desc:"time to sleep between status checks" default:"10s" validate:"gte=0"`
	MaxAttempts int           `flag:"max-attempts" desc:"maximum number of non-terminal status checks" default:"200" validate:"gte=1"`
}

var ErrInvalidPolicy = errors.New("invalid poll policy")

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative, got %s", ErrInvalidPolicy, p.Interval)
	}
	return nil
}

// Budget is the longest a wait under this policy sleeps in total.
func (p Policy) Budget() time.Duration {
	if p.MaxAttempts < 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}

type OutcomeKind int

const (
	Success OutcomeKind = iota + 1
	Failure
	TimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the result of Poll. A timeout is decided by the caller's
// policy and is therefore not a Status.
type Outcome struct {
	Kind     OutcomeKind
	Handle   Handle
	Status   Status
	Reason   string
	Attempts int
}

// Err converts a non-successful outcome into a typed error.
func (o Outcome) Err() error {
	switch o.Kind {
	case Success:
		return nil
	case Failure:
		if o.Status.State == Cancelled {
			return &OperationCancelledError{Handle: o.Handle, Reason: o.Reason, Code: o.Status.Code}
		}
		return &OperationFailedError{Handle: o.Handle, Reason: o.Reason, Code: o.Status.Code}
	case TimedOut:
		return &PollTimedOutError{Handle: o.Handle, Attempts: o.Attempts, Last: o.Status}
	default:
		return fmt.Errorf("operation %s: unknown outcome %d", o.Handle, o.Kind)
	}
}

type OperationFailedError struct {
	Handle Handle
	Reason string
	Code   int32
}

func (e *OperationFailedError) Error() string {
	return e.Reason
}

type OperationCancelledError struct {
	Handle Handle
	Reason string
	Code   int32
}

func (e *OperationCancelledError) Error() string {
	return e.Reason
}

type PollTimedOutError struct {
	Handle   Handle
	Attempts int
	Last     Status
}

func (e *PollTimedOutError) Error() string {
	return fmt.Sprintf("operation %s is still %s after %d status checks", e.Handle, e.Last.State, e.Attempts)
}

// IsTerminalFailure reports whether err is a failed or cancelled operation.
func IsTerminalFailure(err error) bool {
	var failed *OperationFailedError
	var cancelled *OperationCancelledError
	return errors.As(err, &failed) || errors.As(err, &cancelled)
}

func IsTimedOut(err error) bool {
	var timedOut *PollTimedOutError
	return errors.As(err, &timedOut)
}
