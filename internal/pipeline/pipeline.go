// Package pipeline runs the markup setup: it enables the cloud apis, creates
// the dataset and data transfers, loads the reference tables, creates the
// markup views and optionally schedules the main workflow and provisions a
// composer environment. Every asynchronous operation is awaited with a
// bounded poll and journaled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/markuphq/markup/internal/gcp/bigquery"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/gcp/serviceusage"
	"github.com/markuphq/markup/internal/gcp/storage"
	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/metrics"
	"github.com/markuphq/markup/internal/notify"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/sqlscript"
	"golang.org/x/sync/errgroup"
)

const (
	StepAPIs           = "apis"
	StepDataset        = "dataset"
	StepTransfers      = "transfers"
	StepTables         = "tables"
	StepViews          = "views"
	StepScheduledQuery = "scheduled-query"
	StepComposer       = "composer"
	StepDags           = "dags"
)

// Reference tables loaded from csv files in the data directory.
var Tables = []string{"language_codes", "geo_targets"}

type Policies struct {
	Transfers   operation.Policy
	Operations  operation.Policy
	Jobs        operation.Policy
	Environment operation.Policy
}

type ComposerConfig struct {
	Environment      composer.Environment
	Packages         map[string]string
	EnvVariables     map[string]string
	AirflowOverrides map[string]string
	DagsDir          string
}

type Config struct {
	Project        string
	Dataset        string
	APIs           []string
	MerchantID     string
	CustomerID     string
	BackfillDays   int
	MarketInsights bool
	WaitTransfers  bool
	ScheduledQuery bool
	Schedule       string
	ScriptsDir     string
	DataDir        string

	// nil skips the composer steps
	Composer *ComposerConfig

	Policies Policies
}

type Services struct {
	APIs      *serviceusage.Service
	BigQuery  *bigquery.Service
	Transfers *datatransfer.Service
	Composer  *composer.Service
	Storage   *storage.Service
}

type waitFunc func(ctx context.Context, h operation.Handle, policy operation.Policy, opts ...operation.Option) (operation.Outcome, error)

// CheckBackLaterError is returned when an operation did not finish within its
// poll budget. The operation keeps running server side and can be awaited
// again from its journal record.
type CheckBackLaterError struct {
	Step     string
	RecordID string
	Wrapped  error
}

func (e *CheckBackLaterError) Error() string {
	return fmt.Sprintf("%v, check back later with: markup operations resume %s", e.Wrapped, e.RecordID)
}

func (e *CheckBackLaterError) Unwrap() error {
	return e.Wrapped
}

type Pipeline struct {
	config   *Config
	services *Services
	journal  *journal.Journal
	notifier *notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	pollOpts []operation.Option
	now      func() time.Time
}

type Option func(*Pipeline)

func WithJournal(j *journal.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

func WithNotifier(n *notify.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
		p.pollOpts = append(p.pollOpts, operation.WithMetrics(m))
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
		p.pollOpts = append(p.pollOpts, operation.WithLogger(l))
	}
}

func WithSleeper(s operation.Sleeper) Option {
	return func(p *Pipeline) { p.pollOpts = append(p.pollOpts, operation.WithSleeper(s)) }
}

func New(config *Config, services *Services, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:   config,
		services: services,
		metrics:  metrics.Noop(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every step in order and stops at the first failure. The
// summary lists the steps that ran, including the failed one.
func (p *Pipeline) Run(ctx context.Context) (*notify.Summary, error) {
	summary := &notify.Summary{Project: p.config.Project, Dataset: p.config.Dataset}

	var err error
	for _, step := range p.stages() {
		if step.skip {
			continue
		}

		var detail string
		detail, err = p.step(ctx, step.name, step.run)

		s := notify.Step{Name: step.name, Outcome: "success", Detail: detail}
		if err != nil {
			s.Outcome = "failed"
			s.Detail = err.Error()

			var later *CheckBackLaterError
			if errors.As(err, &later) {
				s.Outcome = "timed_out"
			}
		}
		summary.Steps = append(summary.Steps, s)

		if err != nil {
			err = fmt.Errorf("%s: %w", step.name, err)
			break
		}
	}

	summary.Succeeded = err == nil
	summary.Finished = p.now().UTC()

	if nerr := p.notifier.Notify(context.WithoutCancel(ctx), summary); nerr != nil {
		p.logger.Warn("failed to send notification", "error", nerr)
	}
	return summary, err
}

type stage struct {
	name string
	run  func(context.Context) (string, error)
	skip bool
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{StepAPIs, p.enableAPIs, false},
		{StepDataset, p.createDataset, false},
		{StepTransfers, p.createTransfers, false},
		{StepTables, p.loadTables, false},
		{StepViews, p.createViews, false},
		{StepScheduledQuery, p.scheduleQueries, !p.config.ScheduledQuery},
		{StepComposer, p.provisionComposer, p.config.Composer == nil},
		{StepDags, p.uploadDags, p.config.Composer == nil || p.config.Composer.DagsDir == ""},
	}
}

// Step runs the single step called name, whether or not Run would skip it.
// The services the step uses must be set.
func (p *Pipeline) Step(ctx context.Context, name string) (string, error) {
	for _, s := range p.stages() {
		if s.name != name {
			continue
		}
		if (name == StepComposer || name == StepDags) && p.config.Composer == nil {
			return "", fmt.Errorf("%s: composer is not configured", name)
		}
		return p.step(ctx, s.name, s.run)
	}
	return "", fmt.Errorf("unknown step %q", name)
}

func (p *Pipeline) step(ctx context.Context, name string, run func(context.Context) (string, error)) (string, error) {
	gauge := p.metrics.StepsInFlight.WithLabelValues(name)
	gauge.Inc()
	defer gauge.Dec()

	p.logger.Info("starting step", "step", name)
	detail, err := run(ctx)
	if err != nil {
		p.logger.Error("step failed", "step", name, "error", err)
		return detail, err
	}

	p.logger.Info("finished step", "step", name)
	return detail, nil
}

// Await polls h until it reaches a terminal state or the policy budget is
// used up and journals the result. A timeout is returned as a
// *CheckBackLaterError.
func (p *Pipeline) Await(ctx context.Context, step string, h operation.Handle, policy operation.Policy) (operation.Outcome, error) {
	wait, err := p.waiter(step, h.Kind)
	if err != nil {
		return operation.Outcome{}, err
	}

	r, err := p.journal.Begin(ctx, step, h)
	if err != nil {
		return operation.Outcome{}, err
	}
	return p.await(ctx, r, wait, policy)
}

func (p *Pipeline) await(ctx context.Context, r *journal.Record, wait waitFunc, policy operation.Policy) (operation.Outcome, error) {
	out, err := wait(ctx, r.Handle(), policy, p.pollOpts...)
	if jerr := p.journal.Finish(ctx, r, out, err); jerr != nil {
		p.logger.Warn("operation outcome not journaled", "record", r.ID, "error", jerr)
	}
	if err != nil {
		return out, err
	}

	switch out.Kind {
	case operation.Success:
		return out, nil
	case operation.TimedOut:
		return out, &CheckBackLaterError{Step: r.Step, RecordID: r.ID, Wrapped: out.Err()}
	default:
		return out, out.Err()
	}
}

// Resume polls the handle of a journaled operation that has not finished
// yet, updating the same record.
func (p *Pipeline) Resume(ctx context.Context, id string) (operation.Outcome, error) {
	r, err := p.journal.Get(ctx, id)
	if err != nil {
		return operation.Outcome{}, fmt.Errorf("failed to get journal record %s: %w", id, err)
	}
	if !r.State.Resumable() {
		return operation.Outcome{}, fmt.Errorf("operation %s already %s", r.Handle(), r.State)
	}

	wait, err := p.waiter(r.Step, r.Kind)
	if err != nil {
		return operation.Outcome{}, err
	}

	p.logger.Info("resuming wait", "record", r.ID, "step", r.Step, "operation", r.Handle().String())
	return p.await(ctx, r, wait, p.policy(r.Step, r.Kind))
}

func (p *Pipeline) policy(step string, kind operation.Kind) operation.Policy {
	switch {
	case kind == operation.KindTransferRun:
		return p.config.Policies.Transfers
	case kind == operation.KindJob:
		return p.config.Policies.Jobs
	case step == StepComposer:
		return p.config.Policies.Environment
	default:
		return p.config.Policies.Operations
	}
}

func (p *Pipeline) waiter(step string, kind operation.Kind) (waitFunc, error) {
	s := p.services

	var wait waitFunc
	switch kind {
	case operation.KindTransferRun:
		if s.Transfers != nil {
			wait = s.Transfers.Wait
		}
	case operation.KindJob:
		if s.BigQuery != nil {
			wait = s.BigQuery.WaitJob
		}
	case operation.KindEnvironment:
		if s.Composer != nil {
			wait = s.Composer.WaitEnvironment
		}
	case operation.KindOperation:
		if step == StepAPIs {
			if s.APIs != nil {
				wait = s.APIs.Wait
			}
		} else if s.Composer != nil {
			wait = s.Composer.WaitOperation
		}
	default:
		return nil, fmt.Errorf("cannot wait for operations of kind %q", kind)
	}

	if wait == nil {
		return nil, fmt.Errorf("no client configured to wait for %s operations of step %s", kind, step)
	}
	return wait, nil
}

func (p *Pipeline) enableAPIs(ctx context.Context) (string, error) {
	h, err := p.services.APIs.Enable(ctx, p.config.APIs)
	if err != nil {
		return "", err
	}
	if _, err := p.Await(ctx, StepAPIs, h, p.config.Policies.Operations); err != nil {
		return "", err
	}
	return strings.Join(p.config.APIs, ","), nil
}

func (p *Pipeline) createDataset(ctx context.Context) (string, error) {
	created, err := p.services.BigQuery.EnsureDataset(ctx)
	if err != nil {
		return "", err
	}
	if created {
		return "created " + p.config.Dataset, nil
	}
	return p.config.Dataset + " already exists", nil
}

func (p *Pipeline) createTransfers(ctx context.Context) (string, error) {
	mc, err := p.services.Transfers.CreateMerchantCenterTransfer(ctx, p.config.MerchantID, p.config.Dataset)
	if err != nil {
		return "", err
	}

	ads, err := p.services.Transfers.CreateGoogleAdsTransfer(ctx, p.config.CustomerID, p.config.Dataset, p.config.BackfillDays)
	if err != nil {
		return "", err
	}

	detail := fmt.Sprintf("%s, %s", mc.GetName(), ads.GetName())
	if !p.config.WaitTransfers {
		p.logger.Info("not waiting for the transfers to complete", "merchant_center", mc.GetName(), "google_ads", ads.GetName())
		return detail, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range []operation.Handle{datatransfer.Handle(mc), datatransfer.Handle(ads)} {
		g.Go(func() error {
			_, err := p.Await(gctx, StepTransfers, h, p.config.Policies.Transfers)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return detail, nil
}

func (p *Pipeline) loadTables(ctx context.Context) (string, error) {
	for _, table := range Tables {
		h, err := p.services.BigQuery.StartLoad(ctx, table, filepath.Join(p.config.DataDir, table+".csv"))
		if err != nil {
			return "", err
		}
		if _, err := p.Await(ctx, StepTables, h, p.config.Policies.Jobs); err != nil {
			return "", err
		}
	}
	return strings.Join(Tables, ","), nil
}

func (p *Pipeline) params() sqlscript.Params {
	return sqlscript.Params{
		"project_id":           p.config.Project,
		"dataset":              p.config.Dataset,
		"merchant_id":          p.config.MerchantID,
		"external_customer_id": strings.ReplaceAll(p.config.CustomerID, "-", ""),
	}
}

func (p *Pipeline) createViews(ctx context.Context) (string, error) {
	files := sqlscript.Ordered(p.config.MarketInsights)
	params := p.params()

	for _, file := range files {
		sql, err := sqlscript.RenderFile(filepath.Join(p.config.ScriptsDir, file), params)
		if err != nil {
			return "", err
		}

		h, err := p.services.BigQuery.StartQuery(ctx, file, sql)
		if err != nil {
			return "", err
		}
		if _, err := p.Await(ctx, StepViews, h, p.config.Policies.Jobs); err != nil {
			return "", fmt.Errorf("failed to execute %s: %w", file, err)
		}
	}
	return fmt.Sprintf("%d scripts", len(files)), nil
}

func (p *Pipeline) scheduleQueries(ctx context.Context) (string, error) {
	workflows := []struct{ name, file string }{
		{"markup main workflow", sqlscript.MainWorkflow},
	}
	if p.config.MarketInsights {
		workflows = append(workflows, struct{ name, file string }{"markup best sellers workflow", sqlscript.BestSellersWorkflow})
	}

	var created []string
	for _, w := range workflows {
		sql, err := sqlscript.RenderFile(filepath.Join(p.config.ScriptsDir, w.file), p.params())
		if err != nil {
			return "", err
		}

		config, err := p.services.Transfers.CreateScheduledQuery(ctx, w.name, sql, p.config.Schedule)
		if err != nil {
			return "", err
		}
		created = append(created, config.GetName())
	}
	return strings.Join(created, ", "), nil
}

func (p *Pipeline) provisionComposer(ctx context.Context) (string, error) {
	cfg := p.config.Composer
	env := &cfg.Environment

	h, err := p.services.Composer.Create(ctx, env)
	switch {
	case errors.Is(err, composer.ErrAlreadyExists):
	case err != nil:
		return "", err
	default:
		if _, err := p.Await(ctx, StepComposer, h, p.config.Policies.Environment); err != nil {
			return "", err
		}
	}

	ready := composer.EnvironmentHandle(p.services.Composer.EnvironmentName(env.Name))
	if _, err := p.Await(ctx, StepComposer, ready, p.config.Policies.Environment); err != nil {
		return "", err
	}

	patches := []struct {
		values map[string]string
		apply  func(context.Context, string, map[string]string) (operation.Handle, error)
	}{
		{cfg.Packages, p.services.Composer.InstallPackages},
		{cfg.EnvVariables, p.services.Composer.SetEnvVariables},
		{cfg.AirflowOverrides, p.services.Composer.OverrideAirflowConfigs},
	}
	for _, patch := range patches {
		if len(patch.values) == 0 {
			continue
		}
		h, err := patch.apply(ctx, env.Name, patch.values)
		if err != nil {
			return "", err
		}
		if _, err := p.Await(ctx, StepComposer, h, p.config.Policies.Environment); err != nil {
			return "", err
		}
	}
	return ready.ID, nil
}

func (p *Pipeline) uploadDags(ctx context.Context) (string, error) {
	cfg := p.config.Composer

	folder, err := p.services.Composer.DagsFolder(ctx, cfg.Environment.Name)
	if err != nil {
		return "", err
	}

	n, err := p.services.Storage.UploadDir(ctx, cfg.DagsDir, folder)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d files to %s", n, folder), nil
}
