package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/internal/gcp/bigquery"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/gcp/lro"
	"github.com/markuphq/markup/internal/gcp/serviceusage"
	"github.com/markuphq/markup/internal/gcp/storage"
	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/journal/sqlite"
	"github.com/markuphq/markup/internal/metrics"
	"github.com/markuphq/markup/internal/mocks"
	"github.com/markuphq/markup/internal/notify"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
	"github.com/markuphq/markup/internal/sqlscript"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	cmp "google.golang.org/api/composer/v1"
	"google.golang.org/api/googleapi"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	parent = "projects/acme/locations/us"
	mcName = parent + "/transferConfigs/mc"
	adName = parent + "/transferConfigs/ads"
)

func noSleep(context.Context, time.Duration) error { return nil }

type fixture struct {
	su      *mocks.MockServiceUsageAPI
	bq      *mocks.MockBigQueryAPI
	dts     *mocks.MockDataTransferAPI
	cmp     *mocks.MockComposerAPI
	gcs     *mocks.MockStorageAPI
	pubsub  *mocks.MockNotifyClient
	journal *journal.Journal
	metrics *metrics.Metrics
	config  *Config
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)

	store, err := sqlite.New(&sqlite.Config{Path: ":memory:", TxTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() { _ = store.Stop() })

	scripts := t.TempDir()
	for _, file := range append(sqlscript.Ordered(true), sqlscript.MainWorkflow, sqlscript.BestSellersWorkflow) {
		path := filepath.Join(scripts, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("SELECT '"+file+"' FROM `{project_id}.{dataset}.Products_{merchant_id}`"), 0o600))
	}

	data := t.TempDir()
	for _, table := range Tables {
		require.NoError(t, os.WriteFile(filepath.Join(data, table+".csv"), []byte("id,name\n1,a\n"), 0o600))
	}

	policy := operation.Policy{Interval: time.Second, MaxAttempts: 3}

	return &fixture{
		su:      mocks.NewMockServiceUsageAPI(ctrl),
		bq:      mocks.NewMockBigQueryAPI(ctrl),
		dts:     mocks.NewMockDataTransferAPI(ctrl),
		cmp:     mocks.NewMockComposerAPI(ctrl),
		gcs:     mocks.NewMockStorageAPI(ctrl),
		pubsub:  mocks.NewMockNotifyClient(ctrl),
		journal: journal.New(store, slog.Default()),
		metrics: metrics.Noop(),
		config: &Config{
			Project:       "acme",
			Dataset:       "markup",
			APIs:          serviceusage.DefaultAPIs,
			MerchantID:    "1234",
			CustomerID:    "123-456-7890",
			WaitTransfers: true,
			Schedule:      "every 24 hours",
			ScriptsDir:    scripts,
			DataDir:       data,
			Policies: Policies{
				Transfers:   policy,
				Operations:  policy,
				Jobs:        policy,
				Environment: policy,
			},
		},
	}
}

func (f *fixture) pipeline(topic string) *Pipeline {
	exec := retry.New(retry.Policy{MaxAttempts: 2}, retry.WithSleeper(noSleep))
	logger := slog.Default()

	services := &Services{
		APIs:      serviceusage.New(f.su, exec, "acme", logger),
		BigQuery:  bigquery.New(f.bq, exec, &bigquery.Config{Project: "acme", Dataset: "markup", Location: "US"}, logger),
		Transfers: datatransfer.New(f.dts, exec, nil, &datatransfer.Config{Project: "acme", Location: "us"}),
		Composer:  composer.New(f.cmp, exec, &composer.Config{Project: "acme", Location: "us-central1"}, logger),
		Storage:   storage.New(f.gcs, exec, "acme", logger),
	}

	n := notify.New(f.pubsub, &notify.Config{Topic: topic, Timeout: time.Second}, logger)
	return New(f.config, services, WithJournal(f.journal), WithNotifier(n), WithMetrics(f.metrics), WithSleeper(noSleep))
}

func existing(name, source string, params map[string]*structpb.Value) *datatransferpb.TransferConfig {
	return &datatransferpb.TransferConfig{
		Name:         name,
		DisplayName:  name,
		DataSourceId: source,
		Destination:  &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: "markup"},
		Params:       &structpb.Struct{Fields: params},
		State:        datatransferpb.TransferState_SUCCEEDED,
	}
}

func mcConfig() *datatransferpb.TransferConfig {
	return existing(mcName, datatransfer.MerchantCenter, map[string]*structpb.Value{
		"merchant_id":     structpb.NewStringValue("1234"),
		"export_products": structpb.NewBoolValue(true),
	})
}

func adsConfig() *datatransferpb.TransferConfig {
	return existing(adName, datatransfer.GoogleAds, map[string]*structpb.Value{
		"customer_id": structpb.NewStringValue("1234567890"),
	})
}

func (f *fixture) expectAPIs() {
	gomock.InOrder(
		f.su.EXPECT().BatchEnable(gomock.Any(), "projects/acme", serviceusage.DefaultAPIs).Return(&lro.Operation{Name: "operations/1"}, nil),
		f.su.EXPECT().GetOperation(gomock.Any(), "operations/1").Return(&lro.Operation{Name: "operations/1", Done: true}, nil),
	)
	f.bq.EXPECT().DatasetExists(gomock.Any(), "markup").Return(true, nil)
}

func (f *fixture) expectConfigs() {
	f.dts.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.MerchantCenter}).
		Return([]*datatransferpb.TransferConfig{mcConfig()}, nil)
	f.dts.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.GoogleAds}).
		Return([]*datatransferpb.TransferConfig{adsConfig()}, nil)
}

func (f *fixture) expectTransfers(adsRun *datatransferpb.TransferRun) {
	f.expectConfigs()

	// the merchant center wait is cancelled when the ads wait ends first
	f.dts.EXPECT().
		LatestTransferRun(gomock.Any(), mcName).
		Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil).
		AnyTimes()
	f.dts.EXPECT().
		LatestTransferRun(gomock.Any(), adName).
		Return(adsRun, nil).
		AnyTimes()
}

func (f *fixture) expectJobs(failing string) {
	f.bq.EXPECT().
		LoadCSV(gomock.Any(), "markup", gomock.Any(), "US", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, table, _ string, _ io.Reader) (*bigquery.Job, error) {
			return &bigquery.Job{ID: "load_" + table, State: bq.Pending}, nil
		}).
		Times(len(Tables))

	f.bq.EXPECT().
		Query(gomock.Any(), gomock.Any(), "US").
		DoAndReturn(func(_ context.Context, sql, _ string) (*bigquery.Job, error) {
			return &bigquery.Job{ID: sql, State: bq.Pending}, nil
		}).
		AnyTimes()

	f.bq.EXPECT().
		GetJob(gomock.Any(), gomock.Any(), "US").
		DoAndReturn(func(_ context.Context, id, _ string) (*bigquery.Job, error) {
			if failing != "" && id == "SELECT '"+failing+"' FROM `acme.markup.Products_1234`" {
				return &bigquery.Job{ID: id, State: bq.Done, Err: &bq.Error{Reason: "invalidQuery", Message: "Syntax error"}}, nil
			}
			return &bigquery.Job{ID: id, State: bq.Done}, nil
		}).
		AnyTimes()
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED})
	f.expectJobs("")

	f.pubsub.EXPECT().Publish(gomock.Any(), "setup-done", gomock.Any()).Return("1", nil)

	summary, err := f.pipeline("setup-done").Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Succeeded)

	var names []string
	for _, s := range summary.Steps {
		assert.Equal(t, "success", s.Outcome, s.Name)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StepAPIs, StepDataset, StepTransfers, StepTables, StepViews}, names)

	records, err := f.journal.List(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, records, 1+2+len(Tables)+len(sqlscript.Views))
	for _, r := range records {
		assert.Equal(t, journal.Succeeded, r.State, r.String())
	}

	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.StepsInFlight.WithLabelValues(StepViews)))
}

func TestRunTransferTimedOut(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_RUNNING})

	summary, err := f.pipeline("").Run(context.Background())

	var later *CheckBackLaterError
	require.ErrorAs(t, err, &later)
	assert.True(t, operation.IsTimedOut(err))
	assert.Equal(t, StepTransfers, later.Step)
	assert.Contains(t, err.Error(), "check back later with: markup operations resume "+later.RecordID)

	assert.False(t, summary.Succeeded)
	last := summary.Steps[len(summary.Steps)-1]
	assert.Equal(t, StepTransfers, last.Name)
	assert.Equal(t, "timed_out", last.Outcome)

	r, err := f.journal.Get(context.Background(), later.RecordID)
	require.NoError(t, err)
	assert.Equal(t, journal.TimedOut, r.State)
	assert.Equal(t, adName, r.HandleID)
	assert.Equal(t, 3, r.Attempts)
}

func TestRunTransferFailed(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{
		State:       datatransferpb.TransferState_FAILED,
		ErrorStatus: &statuspb.Status{Code: 7, Message: "The caller does not have permission"},
	})

	_, err := f.pipeline("").Run(context.Background())

	var failed *operation.OperationFailedError
	require.ErrorAs(t, err, &failed)
	assert.True(t, operation.IsTerminalFailure(err))
	assert.Equal(t, "transfers: operation "+adName+" FAILED: The caller does not have permission", err.Error())
}

func TestRunViewFailed(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED})
	f.expectJobs("3_customer_view.sql")

	summary, err := f.pipeline("").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "views: failed to execute 3_customer_view.sql: operation 3_customer_view.sql")
	assert.Contains(t, err.Error(), "FAILED: invalidQuery: Syntax error")
	assert.True(t, operation.IsTerminalFailure(err))

	last := summary.Steps[len(summary.Steps)-1]
	assert.Equal(t, StepViews, last.Name)
	assert.Equal(t, "failed", last.Outcome)
}

func TestRunMissingScript(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED})
	f.expectJobs("")

	missing := filepath.Join(f.config.ScriptsDir, sqlscript.Views[2])
	require.NoError(t, os.Remove(missing))

	_, err := f.pipeline("").Run(context.Background())
	assert.EqualError(t, err, `views: the file "`+missing+`" could not be found`)
}

func TestRunWithoutWaitingForTransfers(t *testing.T) {
	f := newFixture(t)
	f.config.WaitTransfers = false
	f.config.ScheduledQuery = true
	f.expectAPIs()
	f.expectJobs("")

	f.expectConfigs()
	f.dts.EXPECT().ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.ScheduledQuery}).Return(nil, nil)
	f.dts.EXPECT().
		CreateTransferConfig(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
			assert.Equal(t, "markup main workflow", req.GetTransferConfig().GetDisplayName())
			assert.Equal(t, "every 24 hours", req.GetTransferConfig().GetSchedule())
			return &datatransferpb.TransferConfig{Name: parent + "/transferConfigs/sq"}, nil
		})

	summary, err := f.pipeline("").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepScheduledQuery, summary.Steps[len(summary.Steps)-1].Name)
	assert.Equal(t, parent+"/transferConfigs/sq", summary.Steps[len(summary.Steps)-1].Detail)

	records, err := f.journal.List(context.Background(), 100)
	require.NoError(t, err)
	for _, r := range records {
		assert.NotEqual(t, StepTransfers, r.Step)
	}
}

func TestRunComposer(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED})
	f.expectJobs("")

	dags := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dags, "markup_dag.py"), []byte("dag"), 0o600))

	f.config.Composer = &ComposerConfig{
		Environment: composer.Environment{Name: "markup", Zone: "b", DiskSizeGb: 20, MachineType: "n1-standard-1", PythonVersion: "3"},
		Packages:    map[string]string{"google-cloud-bigquery": ""},
		DagsDir:     dags,
	}

	env := "projects/acme/locations/us-central1/environments/markup"
	gomock.InOrder(
		f.cmp.EXPECT().CreateEnvironment(gomock.Any(), gomock.Any(), gomock.Any()).Return(&lro.Operation{Name: "operations/create"}, nil),
		f.cmp.EXPECT().GetOperation(gomock.Any(), "operations/create").Return(&lro.Operation{Name: "operations/create", Done: true}, nil),
		f.cmp.EXPECT().GetEnvironment(gomock.Any(), env).Return(&cmp.Environment{State: "RUNNING"}, nil),
		f.cmp.EXPECT().PatchEnvironment(gomock.Any(), env, "config.softwareConfig.pypiPackages", gomock.Any()).Return(&lro.Operation{Name: "operations/patch"}, nil),
		f.cmp.EXPECT().GetOperation(gomock.Any(), "operations/patch").Return(&lro.Operation{Name: "operations/patch", Done: true}, nil),
		f.cmp.EXPECT().GetEnvironment(gomock.Any(), env).Return(&cmp.Environment{Config: &cmp.EnvironmentConfig{DagGcsPrefix: "gs://composer-bucket/dags"}}, nil),
		f.gcs.EXPECT().BucketExists(gomock.Any(), "composer-bucket").Return(true, nil),
		f.gcs.EXPECT().Upload(gomock.Any(), "composer-bucket", "dags/markup_dag.py", gomock.Any()).Return(nil),
	)

	summary, err := f.pipeline("").Run(context.Background())
	require.NoError(t, err)

	last := summary.Steps[len(summary.Steps)-1]
	assert.Equal(t, StepDags, last.Name)
	assert.Equal(t, "1 files to gs://composer-bucket/dags", last.Detail)
}

func TestRunComposerAlreadyExists(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()
	f.expectTransfers(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED})
	f.expectJobs("")

	f.config.Composer = &ComposerConfig{
		Environment: composer.Environment{Name: "markup", Zone: "b", DiskSizeGb: 20, MachineType: "n1-standard-1"},
	}

	env := "projects/acme/locations/us-central1/environments/markup"
	gomock.InOrder(
		f.cmp.EXPECT().CreateEnvironment(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &googleapi.Error{Code: 409, Message: "already exists"}),
		f.cmp.EXPECT().GetEnvironment(gomock.Any(), env).Return(&cmp.Environment{State: "UPDATING"}, nil),
		f.cmp.EXPECT().GetEnvironment(gomock.Any(), env).Return(&cmp.Environment{State: "RUNNING"}, nil),
	)

	summary, err := f.pipeline("").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, env, summary.Steps[len(summary.Steps)-1].Detail)
}

func TestResume(t *testing.T) {
	f := newFixture(t)
	f.expectAPIs()

	f.expectConfigs()
	f.dts.EXPECT().
		LatestTransferRun(gomock.Any(), mcName).
		Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil).
		AnyTimes()

	gomock.InOrder(
		f.dts.EXPECT().LatestTransferRun(gomock.Any(), adName).Return(nil, nil).Times(3),
		f.dts.EXPECT().LatestTransferRun(gomock.Any(), adName).Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_RUNNING}, nil),
		f.dts.EXPECT().LatestTransferRun(gomock.Any(), adName).Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil),
	)

	p := f.pipeline("")

	_, err := p.Run(context.Background())
	var later *CheckBackLaterError
	require.ErrorAs(t, err, &later)

	out, err := p.Resume(context.Background(), later.RecordID)
	require.NoError(t, err)
	assert.Equal(t, operation.Success, out.Kind)

	r, err := f.journal.Get(context.Background(), later.RecordID)
	require.NoError(t, err)
	assert.Equal(t, journal.Succeeded, r.State)
	assert.Equal(t, 4, r.Attempts)

	_, err = p.Resume(context.Background(), later.RecordID)
	assert.EqualError(t, err, "operation "+adName+" already succeeded")

	_, err = p.Resume(context.Background(), "missing")
	assert.True(t, errors.Is(err, journal.ErrNotFound))
}

func TestStep(t *testing.T) {
	t.Run("Tables", func(t *testing.T) {
		f := newFixture(t)
		f.expectJobs("")

		detail, err := f.pipeline("").Step(context.Background(), StepTables)
		require.NoError(t, err)
		assert.Equal(t, "language_codes,geo_targets", detail)

		records, err := f.journal.List(context.Background(), 10)
		require.NoError(t, err)
		assert.Len(t, records, len(Tables))
	})

	t.Run("ComposerNotConfigured", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.pipeline("").Step(context.Background(), StepDags)
		assert.EqualError(t, err, "dags: composer is not configured")
	})

	t.Run("Unknown", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.pipeline("").Step(context.Background(), "iam")
		assert.EqualError(t, err, `unknown step "iam"`)
	})
}
