// Package serviceusage enables cloud apis on a project.
package serviceusage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markuphq/markup/internal/gcp/lro"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
	"google.golang.org/api/option"
	su "google.golang.org/api/serviceusage/v1"
)

var DefaultAPIs = []string{
	"bigquery.googleapis.com",
	"bigquerydatatransfer.googleapis.com",
}

type API interface {
	BatchEnable(ctx context.Context, parent string, serviceIDs []string) (*lro.Operation, error)
	GetOperation(ctx context.Context, name string) (*lro.Operation, error)
	ServiceState(ctx context.Context, name string) (string, error)
}

type client struct {
	svc *su.Service
}

func NewAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	svc, err := su.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &client{svc}, nil
}

func (c *client) BatchEnable(ctx context.Context, parent string, serviceIDs []string) (*lro.Operation, error) {
	op, err := c.svc.Services.BatchEnable(parent, &su.BatchEnableServicesRequest{ServiceIds: serviceIDs}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromOperation(op), nil
}

func (c *client) GetOperation(ctx context.Context, name string) (*lro.Operation, error) {
	op, err := c.svc.Operations.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromOperation(op), nil
}

func (c *client) ServiceState(ctx context.Context, name string) (string, error) {
	svc, err := c.svc.Services.Get(name).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return svc.State, nil
}

func fromOperation(op *su.Operation) *lro.Operation {
	if op == nil {
		return nil
	}
	res := &lro.Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		res.Error = &lro.Error{Code: int32(op.Error.Code), Message: op.Error.Message}
	}
	return res
}

type Service struct {
	api     API
	exec    *retry.Executor
	project string
	logger  *slog.Logger
}

func New(api API, exec *retry.Executor, project string, logger *slog.Logger) *Service {
	return &Service{api: api, exec: exec, project: project, logger: logger}
}

// Enable starts enabling apis and returns the handle of the resulting
// operation.
func (s *Service) Enable(ctx context.Context, apis []string) (operation.Handle, error) {
	if len(apis) == 0 {
		return operation.Handle{}, fmt.Errorf("no apis to enable")
	}

	s.logger.Info("enabling apis", "project", s.project, "apis", apis)
	op, err := retry.Do(ctx, s.exec, "batch enable services", func(ctx context.Context) (*lro.Operation, error) {
		return s.api.BatchEnable(ctx, "projects/"+s.project, apis)
	})
	if err != nil {
		return operation.Handle{}, fmt.Errorf("failed to enable apis: %w", err)
	}
	if op == nil {
		return operation.Handle{}, fmt.Errorf("failed to enable apis: no operation returned")
	}

	h := op.Handle()
	h.Name = "enable apis"
	return h, nil
}

func (s *Service) FetchOperation(ctx context.Context, h operation.Handle) (*lro.Operation, error) {
	return retry.Do(ctx, s.exec, "get operation", func(ctx context.Context) (*lro.Operation, error) {
		return s.api.GetOperation(ctx, h.ID)
	})
}

func (s *Service) Wait(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error) {
	return operation.Poll(ctx, h, policy, s.FetchOperation, lro.Adapter, opts...)
}

func (s *Service) IsEnabled(ctx context.Context, api string) (bool, error) {
	state, err := retry.Do(ctx, s.exec, "get service", func(ctx context.Context) (string, error) {
		return s.api.ServiceState(ctx, fmt.Sprintf("projects/%s/services/%s", s.project, api))
	})
	if err != nil {
		return false, fmt.Errorf("failed to get state of %s: %w", api, err)
	}
	return state == "ENABLED", nil
}
