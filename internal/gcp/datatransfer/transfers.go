package datatransfer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/internal/gcp/auth"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Data source ids.
const (
	MerchantCenter = "merchant_center"
	GoogleAds      = "adwords"
	ScheduledQuery = "scheduled_query"
)

type Config struct {
	Project  string
	Location string
}

type Service struct {
	api    API
	exec   *retry.Executor
	prompt auth.Prompter
	config *Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(api API, exec *retry.Executor, prompt auth.Prompter, config *Config, opts ...Option) *Service {
	s := &Service{
		api:    api,
		exec:   exec,
		prompt: prompt,
		config: config,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.config.Project, s.config.Location)
}

func (s *Service) dataSource(id string) string {
	return fmt.Sprintf("%s/dataSources/%s", s.parent(), id)
}

// Existing returns a succeeded transfer config of the data source that loads
// into dataset with all of params set, or nil.
func (s *Service) Existing(ctx context.Context, dataSourceID, dataset string, params *structpb.Struct) (*datatransferpb.TransferConfig, error) {
	configs, err := retry.Do(ctx, s.exec, "list transfer configs", func(ctx context.Context) ([]*datatransferpb.TransferConfig, error) {
		return s.api.ListTransferConfigs(ctx, s.parent(), []string{dataSourceID})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer configs: %w", err)
	}

	for _, config := range configs {
		if config.GetDataSourceId() != dataSourceID || config.GetDestinationDatasetId() != dataset {
			continue
		}
		if !hasParams(config.GetParams(), params) {
			continue
		}
		if config.GetState() == datatransferpb.TransferState_SUCCEEDED {
			return config, nil
		}
	}
	return nil, nil
}

func hasParams(actual, expected *structpb.Struct) bool {
	for key, value := range expected.GetFields() {
		if !proto.Equal(actual.GetFields()[key], value) {
			return false
		}
	}
	return true
}

// authorize returns an authorization code when the data source has no valid
// credentials for the caller yet, and an empty string otherwise.
func (s *Service) authorize(ctx context.Context, dataSourceID string) (string, error) {
	name := s.dataSource(dataSourceID)

	valid, err := retry.Do(ctx, s.exec, "check valid creds", func(ctx context.Context) (bool, error) {
		return s.api.CheckValidCreds(ctx, name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to check credentials for %s: %w", dataSourceID, err)
	}
	if valid {
		return "", nil
	}

	source, err := retry.Do(ctx, s.exec, "get data source", func(ctx context.Context) (*datatransferpb.DataSource, error) {
		return s.api.GetDataSource(ctx, name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get data source %s: %w", dataSourceID, err)
	}
	if source.GetClientId() == "" {
		return "", fmt.Errorf("data source %s has no client id", dataSourceID)
	}

	if s.prompt == nil {
		return "", fmt.Errorf("data source %s needs an authorization code", dataSourceID)
	}
	return s.prompt.AuthorizationCode(ctx, dataSourceID, source.GetClientId(), source.GetScopes())
}

func (s *Service) create(ctx context.Context, config *datatransferpb.TransferConfig) (*datatransferpb.TransferConfig, error) {
	code, err := s.authorize(ctx, config.GetDataSourceId())
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateTransferConfig(ctx, &datatransferpb.CreateTransferConfigRequest{
		Parent:            s.parent(),
		TransferConfig:    config,
		AuthorizationCode: code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer config %q: %w", config.GetDisplayName(), err)
	}
	return created, nil
}

func (s *Service) CreateMerchantCenterTransfer(ctx context.Context, merchantID, dataset string) (*datatransferpb.TransferConfig, error) {
	params := &structpb.Struct{Fields: map[string]*structpb.Value{
		"merchant_id":     structpb.NewStringValue(merchantID),
		"export_products": structpb.NewBoolValue(true),
	}}

	existing, err := s.Existing(ctx, MerchantCenter, dataset, params)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("merchant center transfer already exists", "merchant", merchantID, "dataset", dataset, "transfer", existing.GetName())
		return existing, nil
	}

	s.logger.Info("creating merchant center transfer", "merchant", merchantID, "dataset", dataset)
	return s.create(ctx, &datatransferpb.TransferConfig{
		DisplayName:  fmt.Sprintf("Merchant Center Transfer - %s", merchantID),
		DataSourceId: MerchantCenter,
		Destination:  &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: dataset},
		Params:       params,
	})
}

// CreateGoogleAdsTransfer creates the ads transfer and, for a new config,
// schedules runs for the backfillDays preceding today.
func (s *Service) CreateGoogleAdsTransfer(ctx context.Context, customerID, dataset string, backfillDays int) (*datatransferpb.TransferConfig, error) {
	customerID = strings.ReplaceAll(customerID, "-", "")
	params := &structpb.Struct{Fields: map[string]*structpb.Value{
		"customer_id": structpb.NewStringValue(customerID),
	}}

	existing, err := s.Existing(ctx, GoogleAds, dataset, params)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("google ads transfer already exists", "customer", customerID, "dataset", dataset, "transfer", existing.GetName())
		return existing, nil
	}

	s.logger.Info("creating google ads transfer", "customer", customerID, "dataset", dataset)
	config, err := s.create(ctx, &datatransferpb.TransferConfig{
		DisplayName:           fmt.Sprintf("Google Ads Transfer - %s", customerID),
		DataSourceId:          GoogleAds,
		Destination:           &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: dataset},
		Params:                params,
		DataRefreshWindowDays: 1,
	})
	if err != nil {
		return nil, err
	}

	if backfillDays > 0 {
		if _, err := s.Backfill(ctx, config.GetName(), backfillDays); err != nil {
			return nil, err
		}
	}
	return config, nil
}

// BackfillRange is the range of whole days [now-days, now-1d] in UTC.
func BackfillRange(now time.Time, days int) (time.Time, time.Time) {
	midnight := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return midnight(now.AddDate(0, 0, -days)), midnight(now.AddDate(0, 0, -1))
}

func (s *Service) Backfill(ctx context.Context, configName string, days int) ([]*datatransferpb.TransferRun, error) {
	start, end := BackfillRange(s.now(), days)
	s.logger.Info("scheduling backfill", "transfer", configName, "start", start, "end", end)

	runs, err := retry.Do(ctx, s.exec, "start manual transfer runs", func(ctx context.Context) ([]*datatransferpb.TransferRun, error) {
		return s.api.StartManualTransferRuns(ctx, &datatransferpb.StartManualTransferRunsRequest{
			Parent: configName,
			Time: &datatransferpb.StartManualTransferRunsRequest_RequestedTimeRange{
				RequestedTimeRange: &datatransferpb.StartManualTransferRunsRequest_TimeRange{
					StartTime: timestamppb.New(start),
					EndTime:   timestamppb.New(end),
				},
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule backfill for %s: %w", configName, err)
	}
	return runs, nil
}

// CreateScheduledQuery registers query to run on schedule. A config with the
// same display name and query is reused.
func (s *Service) CreateScheduledQuery(ctx context.Context, displayName, query, schedule string) (*datatransferpb.TransferConfig, error) {
	configs, err := retry.Do(ctx, s.exec, "list transfer configs", func(ctx context.Context) ([]*datatransferpb.TransferConfig, error) {
		return s.api.ListTransferConfigs(ctx, s.parent(), []string{ScheduledQuery})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer configs: %w", err)
	}

	params := &structpb.Struct{Fields: map[string]*structpb.Value{
		"query": structpb.NewStringValue(query),
	}}

	for _, config := range configs {
		if config.GetDisplayName() == displayName && hasParams(config.GetParams(), params) {
			s.logger.Info("scheduled query already exists", "name", displayName, "transfer", config.GetName())
			return config, nil
		}
	}

	s.logger.Info("creating scheduled query", "name", displayName, "schedule", schedule)
	created, err := s.api.CreateTransferConfig(ctx, &datatransferpb.CreateTransferConfigRequest{
		Parent: s.parent(),
		TransferConfig: &datatransferpb.TransferConfig{
			DisplayName:  displayName,
			DataSourceId: ScheduledQuery,
			Params:       params,
			Schedule:     schedule,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled query %q: %w", displayName, err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, name string) (*datatransferpb.TransferConfig, error) {
	return retry.Do(ctx, s.exec, "get transfer config", func(ctx context.Context) (*datatransferpb.TransferConfig, error) {
		return s.api.GetTransferConfig(ctx, name)
	})
}

func Handle(config *datatransferpb.TransferConfig) operation.Handle {
	return operation.Handle{ID: config.GetName(), Name: config.GetDisplayName(), Kind: operation.KindTransferRun}
}

// FetchLatestRun is the status fetcher for transfer handles. The handle id is
// the transfer config name.
func (s *Service) FetchLatestRun(ctx context.Context, h operation.Handle) (*datatransferpb.TransferRun, error) {
	return retry.Do(ctx, s.exec, "list transfer runs", func(ctx context.Context) (*datatransferpb.TransferRun, error) {
		return s.api.LatestTransferRun(ctx, h.ID)
	})
}

func (s *Service) Wait(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error) {
	return operation.Poll(ctx, h, policy, s.FetchLatestRun, RunAdapter, opts...)
}
