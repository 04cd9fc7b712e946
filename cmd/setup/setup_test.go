package setup

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/cmd/config/test"
	"github.com/markuphq/markup/internal/gcp/bigquery"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/gcp/lro"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/markuphq/markup/internal/sqlscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/protobuf/types/known/structpb"
)

const parent = "projects/acme/locations/us"

func transferConfig(name, source string, params map[string]*structpb.Value) *datatransferpb.TransferConfig {
	return &datatransferpb.TransferConfig{
		Name:         parent + "/transferConfigs/" + name,
		DisplayName:  name,
		DataSourceId: source,
		Destination:  &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: "markup"},
		Params:       &structpb.Struct{Fields: params},
		State:        datatransferpb.TransferState_SUCCEEDED,
	}
}

func newEnv(t *testing.T) (*config.Env, *test.Dialer) {
	env, d := test.NewEnv(t)
	env.Config.DataDir = t.TempDir()
	env.Config.ScriptsDir = t.TempDir()

	for _, table := range pipeline.Tables {
		require.NoError(t, os.WriteFile(filepath.Join(env.Config.DataDir, table+".csv"), []byte("id,name\n1,a\n"), 0o600))
	}
	for _, file := range sqlscript.Ordered(false) {
		path := filepath.Join(env.Config.ScriptsDir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("SELECT 1"), 0o600))
	}
	return env, d
}

func TestSetupCmd(t *testing.T) {
	env, d := newEnv(t)
	env.Config.Transfers.Wait = false

	gomock.InOrder(
		d.ServiceUsageAPI.EXPECT().BatchEnable(gomock.Any(), "projects/acme", gomock.Any()).Return(&lro.Operation{Name: "operations/1"}, nil),
		d.ServiceUsageAPI.EXPECT().GetOperation(gomock.Any(), "operations/1").Return(&lro.Operation{Name: "operations/1", Done: true}, nil),
	)
	d.BigQueryAPI.EXPECT().DatasetExists(gomock.Any(), "markup").Return(true, nil)
	d.DataTransferAPI.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.MerchantCenter}).
		Return([]*datatransferpb.TransferConfig{transferConfig("mc", datatransfer.MerchantCenter, map[string]*structpb.Value{
			"merchant_id":     structpb.NewStringValue("1234"),
			"export_products": structpb.NewBoolValue(true),
		})}, nil)
	d.DataTransferAPI.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.GoogleAds}).
		Return([]*datatransferpb.TransferConfig{transferConfig("ads", datatransfer.GoogleAds, map[string]*structpb.Value{
			"customer_id": structpb.NewStringValue("1234567890"),
		})}, nil)
	d.BigQueryAPI.EXPECT().
		LoadCSV(gomock.Any(), "markup", gomock.Any(), "US", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, table, _ string, _ io.Reader) (*bigquery.Job, error) {
			return &bigquery.Job{ID: "load_" + table, State: bq.Pending}, nil
		}).
		Times(len(pipeline.Tables))
	d.BigQueryAPI.EXPECT().
		Query(gomock.Any(), "SELECT 1", "US").
		Return(&bigquery.Job{ID: "query", State: bq.Pending}, nil).
		Times(len(sqlscript.Ordered(false)))
	d.BigQueryAPI.EXPECT().
		GetJob(gomock.Any(), gomock.Any(), "US").
		DoAndReturn(func(_ context.Context, id, _ string) (*bigquery.Job, error) {
			return &bigquery.Job{ID: id, State: bq.Done}, nil
		}).
		AnyTimes()

	stdout := &bytes.Buffer{}
	cmd := NewCmd(env)
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, []string{"STEP", "OUTCOME", "DETAIL"}, strings.Fields(lines[0]))
	for i, step := range []string{pipeline.StepAPIs, pipeline.StepDataset, pipeline.StepTransfers, pipeline.StepTables, pipeline.StepViews} {
		fields := strings.Fields(lines[i+1])
		assert.Equal(t, step, fields[0])
		assert.Equal(t, "success", fields[1])
	}
	assert.Contains(t, lines[3], parent+"/transferConfigs/mc, "+parent+"/transferConfigs/ads")
	assert.Equal(t, "", lines[6])
	assert.Equal(t, "Markup is set up in acme.markup", lines[7])
}

func TestSetupCmdFailed(t *testing.T) {
	env, d := newEnv(t)

	gomock.InOrder(
		d.ServiceUsageAPI.EXPECT().BatchEnable(gomock.Any(), "projects/acme", gomock.Any()).Return(&lro.Operation{Name: "operations/1"}, nil),
		d.ServiceUsageAPI.EXPECT().
			GetOperation(gomock.Any(), "operations/1").
			Return(&lro.Operation{Name: "operations/1", Done: true, Error: &lro.Error{Code: 7, Message: "permission denied"}}, nil),
	)

	stdout := &bytes.Buffer{}
	cmd := NewCmd(env)
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.EqualError(t, err, "apis: operation enable apis (operations/1) FAILED: permission denied")
	assert.NotContains(t, stdout.String(), "Usage:")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "apis  failed   operation enable apis (operations/1) FAILED: permission denied", lines[1])
}

func TestSetupCmdRequiresAccounts(t *testing.T) {
	tcs := []struct {
		name      string
		configure func(*config.Config)
		wantErr   string
	}{
		{
			name:      "MerchantCenter",
			configure: func(c *config.Config) { c.MerchantCenter.ID = "" },
			wantErr:   "must specify a merchant center id",
		},
		{
			name:      "GoogleAds",
			configure: func(c *config.Config) { c.GoogleAds.CustomerID = "" },
			wantErr:   "must specify a google ads customer id",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			env, _ := test.NewEnv(t)
			tc.configure(env.Config)

			cmd := NewCmd(env)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{})

			assert.EqualError(t, cmd.Execute(), tc.wantErr)
		})
	}
}
