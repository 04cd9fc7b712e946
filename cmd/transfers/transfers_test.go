package transfers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/cmd/config/test"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/mocks"
	"github.com/markuphq/markup/internal/sqlscript"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	parent = "projects/acme/locations/us"
	mcName = parent + "/transferConfigs/mc"
)

func mcConfig() *datatransferpb.TransferConfig {
	return &datatransferpb.TransferConfig{
		Name:         mcName,
		DisplayName:  "Merchant Center Transfer - 1234",
		DataSourceId: datatransfer.MerchantCenter,
		Destination:  &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: "markup"},
		Params: &structpb.Struct{Fields: map[string]*structpb.Value{
			"merchant_id":     structpb.NewStringValue("1234"),
			"export_products": structpb.NewBoolValue(true),
		}},
		State: datatransferpb.TransferState_SUCCEEDED,
	}
}

func TestCreateMerchantCenterCmd(t *testing.T) {
	tcs := []struct {
		name       string
		configure  func(*config.Config)
		expect     func(*mocks.MockDataTransferAPI)
		wantStdout string
		wantErr    string
	}{
		{
			name: "ReuseAndWait",
			expect: func(mock *mocks.MockDataTransferAPI) {
				mock.EXPECT().
					ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.MerchantCenter}).
					Return([]*datatransferpb.TransferConfig{mcConfig()}, nil)
				gomock.InOrder(
					mock.EXPECT().
						LatestTransferRun(gomock.Any(), mcName).
						Return(nil, nil),
					mock.EXPECT().
						LatestTransferRun(gomock.Any(), mcName).
						Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil),
				)
			},
			wantStdout: "Transfer config: " + mcName + "\n" +
				"Transfer Merchant Center Transfer - 1234 (" + mcName + ") succeeded after 1 status checks\n",
		},
		{
			name: "CreateWithoutWaiting",
			configure: func(c *config.Config) {
				c.Transfers.Wait = false
			},
			expect: func(mock *mocks.MockDataTransferAPI) {
				mock.EXPECT().
					ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.MerchantCenter}).
					Return(nil, nil)
				mock.EXPECT().
					CheckValidCreds(gomock.Any(), gomock.Any()).
					Return(true, nil)
				mock.EXPECT().
					CreateTransferConfig(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
						assert.Equal(t, parent, req.GetParent())
						assert.Equal(t, "markup", req.GetTransferConfig().GetDestinationDatasetId())
						return mcConfig(), nil
					})
			},
			wantStdout: "Transfer config: " + mcName + "\n",
		},
		{
			name: "TransferFailed",
			expect: func(mock *mocks.MockDataTransferAPI) {
				mock.EXPECT().
					ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.MerchantCenter}).
					Return([]*datatransferpb.TransferConfig{mcConfig()}, nil)
				mock.EXPECT().
					LatestTransferRun(gomock.Any(), mcName).
					Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_CANCELLED}, nil)
			},
			wantErr: "operation Merchant Center Transfer - 1234 (" + mcName + ") CANCELLED",
		},
		{
			name: "MissingMerchantID",
			configure: func(c *config.Config) {
				c.MerchantCenter.ID = ""
			},
			expect:  func(*mocks.MockDataTransferAPI) {},
			wantErr: "must specify a merchant center id",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			env, d := test.NewEnv(t)
			if tc.configure != nil {
				tc.configure(env.Config)
			}
			tc.expect(d.DataTransferAPI)

			stdout, err := execute(CreateMerchantCenterCmd(env), []string{})
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantStdout, stdout)
			}
		})
	}
}

func TestCreateGoogleAdsCmd(t *testing.T) {
	env, d := test.NewEnv(t)
	env.Config.Transfers.Wait = false
	env.Config.GoogleAds.BackfillDays = 7

	d.DataTransferAPI.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.GoogleAds}).
		Return(nil, nil)
	d.DataTransferAPI.EXPECT().
		CheckValidCreds(gomock.Any(), gomock.Any()).
		Return(true, nil)
	d.DataTransferAPI.EXPECT().
		CreateTransferConfig(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
			assert.Equal(t, "1234567890", req.GetTransferConfig().GetParams().GetFields()["customer_id"].GetStringValue())
			return &datatransferpb.TransferConfig{Name: parent + "/transferConfigs/ads"}, nil
		})
	d.DataTransferAPI.EXPECT().
		StartManualTransferRuns(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *datatransferpb.StartManualTransferRunsRequest) ([]*datatransferpb.TransferRun, error) {
			r := req.GetRequestedTimeRange()
			assert.Equal(t, 6*24.0, r.GetEndTime().AsTime().Sub(r.GetStartTime().AsTime()).Hours())
			return nil, nil
		})

	stdout, err := execute(CreateGoogleAdsCmd(env), []string{})
	require.NoError(t, err)
	assert.Equal(t, "Transfer config: "+parent+"/transferConfigs/ads\n", stdout)
}

func TestCreateScheduledQueryCmd(t *testing.T) {
	env, d := test.NewEnv(t)

	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, sqlscript.MainWorkflow), []byte("CALL `{project_id}.{dataset}.main`()"), 0o600))
	env.Config.ScriptsDir = scripts

	d.DataTransferAPI.EXPECT().
		ListTransferConfigs(gomock.Any(), parent, []string{datatransfer.ScheduledQuery}).
		Return(nil, nil)
	d.DataTransferAPI.EXPECT().
		CreateTransferConfig(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
			assert.Equal(t, "CALL `acme.markup.main`()", req.GetTransferConfig().GetParams().GetFields()["query"].GetStringValue())
			assert.Equal(t, "every 24 hours", req.GetTransferConfig().GetSchedule())
			return &datatransferpb.TransferConfig{Name: parent + "/transferConfigs/sq"}, nil
		})

	stdout, err := execute(CreateScheduledQueryCmd(env), []string{})
	require.NoError(t, err)
	assert.Equal(t, "Scheduled queries: "+parent+"/transferConfigs/sq\n", stdout)
}

func TestWaitCmd(t *testing.T) {
	t.Run("StillRunning", func(t *testing.T) {
		env, d := test.NewEnv(t)

		d.DataTransferAPI.EXPECT().GetTransferConfig(gomock.Any(), mcName).Return(mcConfig(), nil)
		d.DataTransferAPI.EXPECT().
			LatestTransferRun(gomock.Any(), mcName).
			Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_RUNNING}, nil).
			Times(3)

		_, err := execute(WaitCmd(env), []string{mcName})
		assert.ErrorContains(t, err, "still RUNNING after 3 status checks, check back later with: markup operations resume ")
	})

	t.Run("MissingArgument", func(t *testing.T) {
		env, _ := test.NewEnv(t)

		_, err := execute(WaitCmd(env), []string{})
		assert.EqualError(t, err, "must specify a transfer config name")
	})
}

func execute(cmd *cobra.Command, args []string) (string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}
