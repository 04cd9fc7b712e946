package operation

import (
	"context"
	"errors"
	"fmt"
)

type State int

const (
	Pending State = iota + 1
	Running
	Succeeded
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	case Cancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the normalized view of one status fetch. Message and Code are
// only set for Failed and Cancelled.
type Status struct {
	State   State
	Message string
	Code    int32
}

func (s Status) String() string {
	if s.Message == "" {
		return s.State.String()
	}
	return fmt.Sprintf("%s: %s", s.State, s.Message)
}

// Kind names the service family a handle belongs to. It is used for log
// attributes, metric labels and to pick a fetcher when a journaled handle
// is resumed.
type Kind string

const (
	KindTransferRun Kind = "transfer_run"
	KindOperation   Kind = "operation"
	KindEnvironment Kind = "environment"
	KindJob         Kind = "job"
)

// Handle identifies one started asynchronous unit of work.
type Handle struct {
	ID   string
	Name string
	Kind Kind
}

func (h Handle) String() string {
	if h.Name == "" || h.Name == h.ID {
		return h.ID
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.ID)
}

// Fetcher issues the service specific status call for a handle.
type Fetcher[T any] func(ctx context.Context, h Handle) (T, error)

// Adapter interprets a raw status payload.
type Adapter[T any] interface {
	Status(raw T) (Status, error)
}

type AdapterFunc[T any] func(raw T) (Status, error)

func (f AdapterFunc[T]) Status(raw T) (Status, error) {
	return f(raw)
}

var ErrUnrecognizedStatus = errors.New("unrecognized operation status")

type UnrecognizedStatusError struct {
	Kind  Kind
	Value string
}

func (e *UnrecognizedStatusError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnrecognizedStatus, e.Kind, e.Value)
}

func (e *UnrecognizedStatusError) Is(target error) bool {
	return target == ErrUnrecognizedStatus
}

func Unrecognized(kind Kind, value any) error {
	return &UnrecognizedStatusError{Kind: kind, Value: fmt.Sprint(value)}
}
