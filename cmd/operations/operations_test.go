package operations

import (
	"bytes"
	"context"
	"testing"

	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/cmd/config/test"
	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const mcName = "projects/acme/locations/us/transferConfigs/mc"

func begin(t *testing.T, env *config.Env, step string, h operation.Handle) *journal.Record {
	j, err := env.Journal()
	require.NoError(t, err)
	defer config.CloseJournal(j)

	r, err := j.Begin(context.Background(), step, h)
	require.NoError(t, err)
	return r
}

func TestListCmd(t *testing.T) {
	env, _ := test.NewEnv(t)

	r := begin(t, env, pipeline.StepTransfers, operation.Handle{ID: mcName, Name: "Merchant Center Transfer - 1234", Kind: operation.KindTransferRun})

	stdout, err := execute(ListCmd(env), []string{})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(stdout)), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "STEP", "KIND", "OPERATION", "STATE", "ATTEMPTS"}, fields(lines[0]))
	assert.Contains(t, string(lines[1]), r.ID)
	assert.Contains(t, string(lines[1]), "transfers  transfer_run  Merchant Center Transfer - 1234 ("+mcName+")  waiting  0")
}

func TestListCmdJournalDisabled(t *testing.T) {
	env, _ := test.NewEnv(t)
	env.Config.Journal.Sqlite.Enabled = false

	_, err := execute(ListCmd(env), []string{})
	assert.EqualError(t, err, "no journal is enabled")
}

func TestResumeCmd(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		env, d := test.NewEnv(t)
		r := begin(t, env, pipeline.StepTransfers, operation.Handle{ID: mcName, Name: "mc", Kind: operation.KindTransferRun})

		gomock.InOrder(
			d.DataTransferAPI.EXPECT().
				LatestTransferRun(gomock.Any(), mcName).
				Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_RUNNING}, nil),
			d.DataTransferAPI.EXPECT().
				LatestTransferRun(gomock.Any(), mcName).
				Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil),
		)

		stdout, err := execute(ResumeCmd(env), []string{r.ID})
		require.NoError(t, err)
		assert.Equal(t, "Operation mc ("+mcName+") succeeded after 1 status checks\n", stdout)

		// the record is updated in place
		j, err := env.Journal()
		require.NoError(t, err)
		defer config.CloseJournal(j)

		got, err := j.Get(context.Background(), r.ID)
		require.NoError(t, err)
		assert.Equal(t, journal.Succeeded, got.State)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("AlreadySucceeded", func(t *testing.T) {
		env, d := test.NewEnv(t)
		r := begin(t, env, pipeline.StepTransfers, operation.Handle{ID: mcName, Name: "mc", Kind: operation.KindTransferRun})

		d.DataTransferAPI.EXPECT().
			LatestTransferRun(gomock.Any(), mcName).
			Return(&datatransferpb.TransferRun{State: datatransferpb.TransferState_SUCCEEDED}, nil)

		_, err := execute(ResumeCmd(env), []string{r.ID})
		require.NoError(t, err)

		_, err = execute(ResumeCmd(env), []string{r.ID})
		assert.EqualError(t, err, "operation mc ("+mcName+") already succeeded")
	})

	t.Run("NotFound", func(t *testing.T) {
		env, _ := test.NewEnv(t)

		_, err := execute(ResumeCmd(env), []string{"missing"})
		assert.ErrorIs(t, err, journal.ErrNotFound)
	})

	t.Run("MissingArgument", func(t *testing.T) {
		env, _ := test.NewEnv(t)

		_, err := execute(ResumeCmd(env), []string{})
		assert.EqualError(t, err, "must specify an operation id")
	})
}

func fields(line []byte) []string {
	var res []string
	for _, f := range bytes.Fields(line) {
		res = append(res, string(f))
	}
	return res
}

func execute(cmd *cobra.Command, args []string) (string, error) {
	stdout := &bytes.Buffer{}

	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}
