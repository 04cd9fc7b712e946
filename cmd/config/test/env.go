package test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/gcp/bigquery"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/gcp/serviceusage"
	"github.com/markuphq/markup/internal/gcp/storage"
	"github.com/markuphq/markup/internal/metrics"
	"github.com/markuphq/markup/internal/mocks"
	"github.com/markuphq/markup/internal/notify"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Dialer hands out gomock apis instead of cloud clients.
type Dialer struct {
	ServiceUsageAPI *mocks.MockServiceUsageAPI
	DataTransferAPI *mocks.MockDataTransferAPI
	BigQueryAPI     *mocks.MockBigQueryAPI
	ComposerAPI     *mocks.MockComposerAPI
	StorageAPI      *mocks.MockStorageAPI
	PubSubClient    *mocks.MockNotifyClient
}

func (d *Dialer) ServiceUsage(context.Context) (serviceusage.API, error) {
	return d.ServiceUsageAPI, nil
}

func (d *Dialer) DataTransfer(context.Context) (datatransfer.API, error) {
	return d.DataTransferAPI, nil
}

func (d *Dialer) BigQuery(context.Context) (bigquery.API, error) {
	return d.BigQueryAPI, nil
}

func (d *Dialer) Composer(context.Context) (composer.API, error) {
	return d.ComposerAPI, nil
}

func (d *Dialer) Storage(context.Context) (storage.API, error) {
	return d.StorageAPI, nil
}

func (d *Dialer) PubSub(context.Context) (notify.Client, error) {
	return d.PubSubClient, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

// NewEnv returns an env for project acme with default configuration, a
// sqlite journal in a temporary directory and polls of at most three
// status checks that do not sleep.
func NewEnv(t *testing.T) (*config.Env, *Dialer) {
	ctrl := gomock.NewController(t)

	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.Project = "acme"
	cfg.MerchantCenter.ID = "1234"
	cfg.GoogleAds.CustomerID = "123-456-7890"
	cfg.Journal.Sqlite.Config.Path = filepath.Join(t.TempDir(), "markup.db")
	cfg.Retry.MaxAttempts = 2
	cfg.Transfers.Poll.MaxAttempts = 3
	cfg.Operations.MaxAttempts = 3
	cfg.Jobs.MaxAttempts = 3
	cfg.Composer.Poll.MaxAttempts = 3

	d := &Dialer{
		ServiceUsageAPI: mocks.NewMockServiceUsageAPI(ctrl),
		DataTransferAPI: mocks.NewMockDataTransferAPI(ctrl),
		BigQueryAPI:     mocks.NewMockBigQueryAPI(ctrl),
		ComposerAPI:     mocks.NewMockComposerAPI(ctrl),
		StorageAPI:      mocks.NewMockStorageAPI(ctrl),
		PubSubClient:    mocks.NewMockNotifyClient(ctrl),
	}

	return &config.Env{
		Config:  cfg,
		Dialer:  d,
		Logger:  slog.Default(),
		Metrics: metrics.Noop(),
		Sleeper: noSleep,
	}, d
}
