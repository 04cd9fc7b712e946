// Package composer creates and configures Cloud Composer environments.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markuphq/markup/internal/gcp/lro"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
	cmp "google.golang.org/api/composer/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const MinDiskSizeGb = 20

type API interface {
	CreateEnvironment(ctx context.Context, parent string, env *cmp.Environment) (*lro.Operation, error)
	PatchEnvironment(ctx context.Context, name, updateMask string, env *cmp.Environment) (*lro.Operation, error)
	GetEnvironment(ctx context.Context, name string) (*cmp.Environment, error)
	GetOperation(ctx context.Context, name string) (*lro.Operation, error)
}

type client struct {
	svc *cmp.Service
}

func NewAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	svc, err := cmp.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &client{svc}, nil
}

func (c *client) CreateEnvironment(ctx context.Context, parent string, env *cmp.Environment) (*lro.Operation, error) {
	op, err := c.svc.Projects.Locations.Environments.Create(parent, env).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromOperation(op), nil
}

func (c *client) PatchEnvironment(ctx context.Context, name, updateMask string, env *cmp.Environment) (*lro.Operation, error) {
	op, err := c.svc.Projects.Locations.Environments.Patch(name, env).UpdateMask(updateMask).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromOperation(op), nil
}

func (c *client) GetEnvironment(ctx context.Context, name string) (*cmp.Environment, error) {
	return c.svc.Projects.Locations.Environments.Get(name).Context(ctx).Do()
}

func (c *client) GetOperation(ctx context.Context, name string) (*lro.Operation, error) {
	op, err := c.svc.Projects.Locations.Operations.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromOperation(op), nil
}

func fromOperation(op *cmp.Operation) *lro.Operation {
	if op == nil {
		return nil
	}
	res := &lro.Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		res.Error = &lro.Error{Code: int32(op.Error.Code), Message: op.Error.Message}
	}
	return res
}

type Config struct {
	Project  string
	Location string
}

type Environment struct {
	Name          string `flag:"name" desc:"composer environment name" default:"markup"`
	Zone          string `flag:"zone" desc:"zone suffix within the location" default:"b"`
	DiskSizeGb    int64  `flag:"disk-size-gb" desc:"node disk size in GB" default:"20" validate:"gte=20"`
	MachineType   string `flag:"machine-type" desc:"node machine type" default:"n1-standard-1"`
	ImageVersion  string `flag:"image-version" desc:"composer image version, service default when empty" default:""`
	PythonVersion string `flag:"python-version" desc:"python version running airflow" default:"3"`
}

var ErrAlreadyExists = errors.New("composer environment already exists")

type Service struct {
	api    API
	exec   *retry.Executor
	config *Config
	logger *slog.Logger
}

func New(api API, exec *retry.Executor, config *Config, logger *slog.Logger) *Service {
	return &Service{api: api, exec: exec, config: config, logger: logger}
}

func (s *Service) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.config.Project, s.config.Location)
}

func (s *Service) EnvironmentName(name string) string {
	return fmt.Sprintf("%s/environments/%s", s.parent(), name)
}

// Create starts creating env. ErrAlreadyExists is returned together with the
// environment handle when the service answers with a conflict.
func (s *Service) Create(ctx context.Context, env *Environment) (operation.Handle, error) {
	if env.DiskSizeGb < MinDiskSizeGb {
		return operation.Handle{}, fmt.Errorf("the minimum disk size needs to be %dGB to create a composer environment", MinDiskSizeGb)
	}

	name := s.EnvironmentName(env.Name)
	zone := fmt.Sprintf("%s-%s", s.config.Location, env.Zone)

	software := &cmp.SoftwareConfig{PythonVersion: env.PythonVersion, ImageVersion: env.ImageVersion}
	body := &cmp.Environment{
		Name: name,
		Config: &cmp.EnvironmentConfig{
			NodeConfig: &cmp.NodeConfig{
				Location:    fmt.Sprintf("projects/%s/zones/%s", s.config.Project, zone),
				MachineType: fmt.Sprintf("projects/%s/zones/%s/machineTypes/%s", s.config.Project, zone, env.MachineType),
				DiskSizeGb:  env.DiskSizeGb,
			},
			SoftwareConfig: software,
		},
	}

	s.logger.Info("creating composer environment", "environment", name)
	op, err := retry.Do(ctx, s.exec, "create environment", func(ctx context.Context) (*lro.Operation, error) {
		return s.api.CreateEnvironment(ctx, s.parent(), body)
	})
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			s.logger.Info("composer environment already exists", "environment", name)
			return EnvironmentHandle(name), ErrAlreadyExists
		}
		return operation.Handle{}, fmt.Errorf("failed to create composer environment %s: %w", name, err)
	}
	return operationHandle(op, "create "+env.Name)
}

func (s *Service) patch(ctx context.Context, envName, mask string, software *cmp.SoftwareConfig) (operation.Handle, error) {
	name := s.EnvironmentName(envName)
	body := &cmp.Environment{Name: name, Config: &cmp.EnvironmentConfig{SoftwareConfig: software}}

	op, err := retry.Do(ctx, s.exec, "patch environment", func(ctx context.Context) (*lro.Operation, error) {
		return s.api.PatchEnvironment(ctx, name, mask, body)
	})
	if err != nil {
		return operation.Handle{}, fmt.Errorf("failed to update %s of %s: %w", mask, name, err)
	}
	return operationHandle(op, fmt.Sprintf("update %s %s", envName, mask[strings.LastIndex(mask, ".")+1:]))
}

func (s *Service) InstallPackages(ctx context.Context, envName string, packages map[string]string) (operation.Handle, error) {
	if len(packages) == 0 {
		return operation.Handle{}, fmt.Errorf("package list cannot be empty")
	}
	s.logger.Info("installing python packages", "environment", envName, "packages", packages)
	return s.patch(ctx, envName, "config.softwareConfig.pypiPackages", &cmp.SoftwareConfig{PypiPackages: packages})
}

func (s *Service) SetEnvVariables(ctx context.Context, envName string, vars map[string]string) (operation.Handle, error) {
	s.logger.Info("setting environment variables", "environment", envName, "count", len(vars))
	return s.patch(ctx, envName, "config.softwareConfig.envVariables", &cmp.SoftwareConfig{EnvVariables: vars})
}

func (s *Service) OverrideAirflowConfigs(ctx context.Context, envName string, overrides map[string]string) (operation.Handle, error) {
	s.logger.Info("overriding airflow configs", "environment", envName, "overrides", overrides)
	return s.patch(ctx, envName, "config.softwareConfig.airflowConfigOverrides", &cmp.SoftwareConfig{AirflowConfigOverrides: overrides})
}

func (s *Service) Get(ctx context.Context, envName string) (*cmp.Environment, error) {
	name := s.EnvironmentName(envName)
	env, err := retry.Do(ctx, s.exec, "get environment", func(ctx context.Context) (*cmp.Environment, error) {
		return s.api.GetEnvironment(ctx, name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get composer environment %s: %w", name, err)
	}
	return env, nil
}

// DagsFolder returns the cloud storage url of the environment's dags folder.
func (s *Service) DagsFolder(ctx context.Context, envName string) (string, error) {
	env, err := s.Get(ctx, envName)
	if err != nil {
		return "", err
	}
	if env.Config == nil || env.Config.DagGcsPrefix == "" {
		return "", fmt.Errorf("composer environment %s has no dags folder yet", envName)
	}
	return env.Config.DagGcsPrefix, nil
}

func operationHandle(op *lro.Operation, name string) (operation.Handle, error) {
	if op == nil {
		return operation.Handle{}, fmt.Errorf("%s: no operation returned", name)
	}
	h := op.Handle()
	h.Name = name
	return h, nil
}

func EnvironmentHandle(name string) operation.Handle {
	return operation.Handle{ID: name, Name: name[strings.LastIndex(name, "/")+1:], Kind: operation.KindEnvironment}
}

func (s *Service) FetchOperation(ctx context.Context, h operation.Handle) (*lro.Operation, error) {
	return retry.Do(ctx, s.exec, "get operation", func(ctx context.Context) (*lro.Operation, error) {
		return s.api.GetOperation(ctx, h.ID)
	})
}

func (s *Service) FetchEnvironment(ctx context.Context, h operation.Handle) (*cmp.Environment, error) {
	return retry.Do(ctx, s.exec, "get environment", func(ctx context.Context) (*cmp.Environment, error) {
		return s.api.GetEnvironment(ctx, h.ID)
	})
}

func (s *Service) WaitOperation(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error) {
	return operation.Poll(ctx, h, policy, s.FetchOperation, lro.Adapter, opts...)
}

// WaitEnvironment waits until the environment of h is running.
func (s *Service) WaitEnvironment(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error) {
	return operation.Poll(ctx, h, policy, s.FetchEnvironment, EnvironmentAdapter, opts...)
}
