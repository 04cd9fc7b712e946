// Package journal records every awaited operation handle together with the
// outcome of its wait, so that a wait that ran out of attempts can be resumed
// later.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/markuphq/markup/internal/operation"
)

var ErrNotFound = errors.New("journal record not found")

type State string

const (
	Waiting   State = "waiting"
	Succeeded State = "succeeded"
	Failed    State = "failed"
	TimedOut  State = "timed_out"
	Aborted   State = "aborted"
)

func (s State) Resumable() bool {
	return s == Waiting || s == TimedOut || s == Aborted
}

type Record struct {
	ID        string
	Step      string
	Kind      operation.Kind
	HandleID  string
	Name      string
	State     State
	Attempts  int
	Reason    string
	CreatedOn int64
	UpdatedOn int64
}

func (r *Record) Handle() operation.Handle {
	return operation.Handle{ID: r.HandleID, Name: r.Name, Kind: r.Kind}
}

func (r *Record) String() string {
	return fmt.Sprintf("Record(id=%s, step=%s, handle=%s, state=%s)", r.ID, r.Step, r.HandleID, r.State)
}

type Store interface {
	String() string
	Start() error
	Stop() error
	Reset() error
	Insert(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit int) ([]*Record, error)
}

// Journal stamps and persists records. A nil *Journal discards everything.
type Journal struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Journal {
	return &Journal{store: store, now: time.Now, logger: logger}
}

func (j *Journal) Store() Store {
	if j == nil {
		return nil
	}
	return j.store
}

// Begin records that step started waiting for h.
func (j *Journal) Begin(ctx context.Context, step string, h operation.Handle) (*Record, error) {
	now := j.stamp()
	r := &Record{
		ID:        uuid.NewString(),
		Step:      step,
		Kind:      h.Kind,
		HandleID:  h.ID,
		Name:      h.Name,
		State:     Waiting,
		CreatedOn: now,
		UpdatedOn: now,
	}
	if j == nil {
		return r, nil
	}

	if err := j.store.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to journal %s: %w", h, err)
	}
	return r, nil
}

// Finish stores the result of a wait. A non nil err means the wait itself
// did not complete, e.g. it was cancelled.
func (j *Journal) Finish(ctx context.Context, r *Record, out operation.Outcome, err error) error {
	switch {
	case err != nil:
		r.State = Aborted
		r.Reason = err.Error()
	case out.Kind == operation.Success:
		r.State = Succeeded
		r.Reason = ""
	case out.Kind == operation.Failure:
		r.State = Failed
		r.Reason = out.Reason
	case out.Kind == operation.TimedOut:
		r.State = TimedOut
		r.Reason = out.Err().Error()
	}
	r.Attempts += out.Attempts
	r.UpdatedOn = j.stamp()

	if j == nil {
		return nil
	}

	// a cancelled context must not prevent recording that the wait stopped
	if err := j.store.Update(context.WithoutCancel(ctx), r); err != nil {
		j.logger.Error("failed to update journal record", "record", r.ID, "error", err)
		return err
	}
	return nil
}

func (j *Journal) Get(ctx context.Context, id string) (*Record, error) {
	if j == nil {
		return nil, ErrNotFound
	}
	return j.store.Get(ctx, id)
}

func (j *Journal) List(ctx context.Context, limit int) ([]*Record, error) {
	if j == nil {
		return nil, nil
	}
	return j.store.List(ctx, limit)
}

func (j *Journal) stamp() int64 {
	if j == nil {
		return time.Now().UnixMilli()
	}
	return j.now().UnixMilli()
}
