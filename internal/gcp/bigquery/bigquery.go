package bigquery

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
)

type Config struct {
	Project  string
	Dataset  string
	Location string
}

type Service struct {
	api    API
	exec   *retry.Executor
	config *Config
	logger *slog.Logger
}

func New(api API, exec *retry.Executor, config *Config, logger *slog.Logger) *Service {
	return &Service{api: api, exec: exec, config: config, logger: logger}
}

func (s *Service) qualified() string {
	return fmt.Sprintf("%s.%s", s.config.Project, s.config.Dataset)
}

// EnsureDataset creates the dataset unless it exists and reports whether it
// was created.
func (s *Service) EnsureDataset(ctx context.Context) (bool, error) {
	exists, err := retry.Do(ctx, s.exec, "get dataset", func(ctx context.Context) (bool, error) {
		return s.api.DatasetExists(ctx, s.config.Dataset)
	})
	if err != nil {
		return false, fmt.Errorf("failed to get dataset %s: %w", s.qualified(), err)
	}
	if exists {
		s.logger.Info("dataset already exists", "dataset", s.qualified())
		return false, nil
	}

	s.logger.Info("dataset not found, creating it", "dataset", s.qualified(), "location", s.config.Location)
	if err := s.exec.Run(ctx, "create dataset", func(ctx context.Context) error {
		return s.api.CreateDataset(ctx, s.config.Dataset, s.config.Location)
	}); err != nil {
		return false, fmt.Errorf("failed to create dataset %s: %w", s.qualified(), err)
	}
	return true, nil
}

// StartLoad loads the csv file at path into table, replacing its contents.
func (s *Service) StartLoad(ctx context.Context, table, path string) (operation.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return operation.Handle{}, fmt.Errorf("the file %q could not be opened: %w", path, err)
	}
	defer f.Close()

	s.logger.Info("loading table", "table", table, "file", path)

	// the reader is consumed by the first attempt, so loads are not retried
	job, err := s.api.LoadCSV(ctx, s.config.Dataset, table, s.config.Location, f)
	if err != nil {
		return operation.Handle{}, fmt.Errorf("failed to load %s into %s.%s: %w", path, s.qualified(), table, err)
	}
	return job.Handle("load " + table), nil
}

func (s *Service) StartQuery(ctx context.Context, name, sql string) (operation.Handle, error) {
	job, err := retry.Do(ctx, s.exec, "insert query job", func(ctx context.Context) (*Job, error) {
		return s.api.Query(ctx, sql, s.config.Location)
	})
	if err != nil {
		return operation.Handle{}, fmt.Errorf("failed to start query %s: %w", name, err)
	}
	return job.Handle(name), nil
}

func (s *Service) FetchJob(ctx context.Context, h operation.Handle) (*Job, error) {
	return retry.Do(ctx, s.exec, "get job", func(ctx context.Context) (*Job, error) {
		return s.api.GetJob(ctx, h.ID, s.config.Location)
	})
}

func (s *Service) WaitJob(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error) {
	return operation.Poll(ctx, h, policy, s.FetchJob, JobAdapter, opts...)
}
