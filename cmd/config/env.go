package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markuphq/markup/internal/gcp/auth"
	"github.com/markuphq/markup/internal/gcp/bigquery"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/gcp/conn"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/gcp/serviceusage"
	"github.com/markuphq/markup/internal/gcp/storage"
	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/journal/postgres"
	"github.com/markuphq/markup/internal/journal/sqlite"
	"github.com/markuphq/markup/internal/metrics"
	"github.com/markuphq/markup/internal/notify"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/markuphq/markup/internal/retry"
	"google.golang.org/api/option"
)

// Dialer opens the cloud api clients.
type Dialer interface {
	ServiceUsage(ctx context.Context) (serviceusage.API, error)
	DataTransfer(ctx context.Context) (datatransfer.API, error)
	BigQuery(ctx context.Context) (bigquery.API, error)
	Composer(ctx context.Context) (composer.API, error)
	Storage(ctx context.Context) (storage.API, error)
	PubSub(ctx context.Context) (notify.Client, error)
}

type cloudDialer struct {
	config *Config
	logger *slog.Logger
}

func NewDialer(config *Config, logger *slog.Logger) Dialer {
	return &cloudDialer{config: config, logger: logger}
}

func (d *cloudDialer) options() ([]option.ClientOption, error) {
	return auth.ClientOptions(&d.config.Auth)
}

func (d *cloudDialer) ServiceUsage(ctx context.Context) (serviceusage.API, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return serviceusage.NewAPI(ctx, opts...)
}

func (d *cloudDialer) DataTransfer(ctx context.Context) (datatransfer.API, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return datatransfer.NewAPI(ctx, append(opts, conn.GRPCOptions(&d.config.GRPC, d.logger)...)...)
}

func (d *cloudDialer) BigQuery(ctx context.Context) (bigquery.API, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return bigquery.NewAPI(ctx, d.config.Project, opts...)
}

func (d *cloudDialer) Composer(ctx context.Context) (composer.API, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return composer.NewAPI(ctx, opts...)
}

func (d *cloudDialer) Storage(ctx context.Context) (storage.API, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return storage.NewAPI(ctx, opts...)
}

func (d *cloudDialer) PubSub(ctx context.Context) (notify.Client, error) {
	opts, err := d.options()
	if err != nil {
		return nil, err
	}
	return notify.NewClient(ctx, d.config.Project, opts...)
}

// Env carries what the commands need to build services from the parsed
// configuration. Logger and Metrics are set once the root command has
// decoded the configuration.
type Env struct {
	Config   *Config
	Dialer   Dialer
	Prompter auth.Prompter
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// overrides the sleep between polls and retries
	Sleeper operation.Sleeper
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) metrics() *metrics.Metrics {
	if e.Metrics == nil {
		e.Metrics = metrics.Noop()
	}
	return e.Metrics
}

func (e *Env) executor() *retry.Executor {
	opts := []retry.Option{
		retry.WithLogger(e.logger()),
		retry.WithMetrics(e.metrics()),
	}
	if e.Sleeper != nil {
		opts = append(opts, retry.WithSleeper(retry.Sleeper(e.Sleeper)))
	}
	return retry.New(e.Config.Retry, opts...)
}

func (e *Env) APIs(ctx context.Context) (*serviceusage.Service, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	api, err := e.Dialer.ServiceUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create service usage client: %w", err)
	}
	return serviceusage.New(api, e.executor(), e.Config.Project, e.logger()), nil
}

func (e *Env) BigQuery(ctx context.Context) (*bigquery.Service, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	api, err := e.Dialer.BigQuery(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return bigquery.New(api, e.executor(), &bigquery.Config{
		Project:  e.Config.Project,
		Dataset:  e.Config.Dataset.Name,
		Location: e.Config.Dataset.Location,
	}, e.logger()), nil
}

func (e *Env) Transfers(ctx context.Context) (*datatransfer.Service, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	api, err := e.Dialer.DataTransfer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create data transfer client: %w", err)
	}
	return datatransfer.New(api, e.executor(), e.Prompter, &datatransfer.Config{
		Project:  e.Config.Project,
		Location: e.Config.Transfers.Location,
	}, datatransfer.WithLogger(e.logger())), nil
}

func (e *Env) Composer(ctx context.Context) (*composer.Service, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	api, err := e.Dialer.Composer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create composer client: %w", err)
	}
	return composer.New(api, e.executor(), &composer.Config{
		Project:  e.Config.Project,
		Location: e.Config.Composer.Location,
	}, e.logger()), nil
}

func (e *Env) Storage(ctx context.Context) (*storage.Service, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	api, err := e.Dialer.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return storage.New(api, e.executor(), e.Config.Project, e.logger()), nil
}

// Journal opens and starts the enabled journal store. Postgres takes
// precedence when both stores are enabled.
func (e *Env) Journal() (*journal.Journal, error) {
	var (
		store journal.Store
		err   error
	)

	cfg := e.Config.Journal
	if cfg.Postgres.Enabled {
		store, err = postgres.New(&cfg.Postgres.Config)
	} else if cfg.Sqlite.Enabled {
		store, err = sqlite.New(&cfg.Sqlite.Config)
	} else {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.name(), err)
	}

	if err := store.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", store, err)
	}
	return journal.New(store, e.logger()), nil
}

func (j Journal) name() string {
	if j.Postgres.Enabled {
		return "journal:postgres"
	}
	return "journal:sqlite"
}

// CloseJournal stops the store behind j. A nil journal is ignored.
func CloseJournal(j *journal.Journal) {
	if store := j.Store(); store != nil {
		if err := store.Stop(); err != nil {
			slog.Warn("failed to stop journal", "store", store, "error", err)
		}
	}
}

// Notifier returns a nil notifier when no topic is configured.
func (e *Env) Notifier(ctx context.Context) (*notify.Notifier, error) {
	if e.Config.Notify.Topic == "" {
		return nil, nil
	}
	client, err := e.Dialer.PubSub(ctx)
	if err != nil {
		return nil, err
	}
	return notify.New(client, &e.Config.Notify, e.logger()), nil
}

// ServicesFor dials the single client able to wait for the operation
// recorded in r.
func (e *Env) ServicesFor(ctx context.Context, r *journal.Record) (*pipeline.Services, error) {
	var (
		s   = &pipeline.Services{}
		err error
	)

	switch {
	case r.Kind == operation.KindTransferRun:
		s.Transfers, err = e.Transfers(ctx)
	case r.Kind == operation.KindJob:
		s.BigQuery, err = e.BigQuery(ctx)
	case r.Kind == operation.KindOperation && r.Step == pipeline.StepAPIs:
		s.APIs, err = e.APIs(ctx)
	default:
		s.Composer, err = e.Composer(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Services dials every client the pipeline needs. Composer and storage
// clients are only opened when composer is enabled.
func (e *Env) Services(ctx context.Context) (*pipeline.Services, error) {
	var (
		s   = &pipeline.Services{}
		err error
	)

	if s.APIs, err = e.APIs(ctx); err != nil {
		return nil, err
	}
	if s.BigQuery, err = e.BigQuery(ctx); err != nil {
		return nil, err
	}
	if s.Transfers, err = e.Transfers(ctx); err != nil {
		return nil, err
	}

	if e.Config.Composer.Enabled {
		if s.Composer, err = e.Composer(ctx); err != nil {
			return nil, err
		}
		if s.Storage, err = e.Storage(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (e *Env) PipelineConfig() *pipeline.Config {
	c := e.Config

	pc := &pipeline.Config{
		Project:        c.Project,
		Dataset:        c.Dataset.Name,
		APIs:           c.APIs,
		MerchantID:     c.MerchantCenter.ID,
		CustomerID:     c.GoogleAds.CustomerID,
		BackfillDays:   c.GoogleAds.BackfillDays,
		MarketInsights: c.MerchantCenter.MarketInsights,
		WaitTransfers:  c.Transfers.Wait,
		ScheduledQuery: c.Transfers.ScheduledQuery,
		Schedule:       c.Transfers.Schedule,
		ScriptsDir:     c.ScriptsDir,
		DataDir:        c.DataDir,
		Policies: pipeline.Policies{
			Transfers:   c.Transfers.Poll,
			Operations:  c.Operations,
			Jobs:        c.Jobs,
			Environment: c.Composer.Poll,
		},
	}
	if c.Composer.Enabled {
		pc.Composer = &pipeline.ComposerConfig{
			Environment:      c.Composer.Environment,
			Packages:         c.Composer.Packages,
			EnvVariables:     c.Composer.EnvVariables,
			AirflowOverrides: c.Composer.AirflowOverrides,
			DagsDir:          c.Composer.DagsDir,
		}
	}
	return pc
}

// Pipeline wires a pipeline to services, journal and notifier.
func (e *Env) Pipeline(services *pipeline.Services, j *journal.Journal, n *notify.Notifier) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithJournal(j),
		pipeline.WithNotifier(n),
		pipeline.WithLogger(e.logger()),
		pipeline.WithMetrics(e.metrics()),
	}
	if e.Sleeper != nil {
		opts = append(opts, pipeline.WithSleeper(e.Sleeper))
	}
	return pipeline.New(e.PipelineConfig(), services, opts...)
}

// Await journals and waits for h the same way setup does.
func (e *Env) Await(ctx context.Context, services *pipeline.Services, step string, h operation.Handle, policy operation.Policy) (operation.Outcome, error) {
	j, err := e.Journal()
	if err != nil {
		return operation.Outcome{}, err
	}
	defer CloseJournal(j)

	return e.Pipeline(services, j, nil).Await(ctx, step, h, policy)
}
