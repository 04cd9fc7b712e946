package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/markuphq/markup/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "markup version "+version.Full()+"\n", stdout)
}

func TestLogLevel(t *testing.T) {
	t.Run("Flag", func(t *testing.T) {
		_, _, err := execute(t, "version", "--log-level", "loud")
		assert.EqualError(t, err, "unrecognized level: loud")
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("MARKUP_LOGLEVEL", "loud")

		_, _, err := execute(t, "version")
		assert.EqualError(t, err, "unrecognized level: loud")
	})

	t.Run("ConfigFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "markup.yaml")
		require.NoError(t, os.WriteFile(file, []byte("logLevel: loud\n"), 0o600))

		_, _, err := execute(t, "version", "--config", file)
		assert.EqualError(t, err, "unrecognized level: loud")
	})
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRequiresProject(t *testing.T) {
	t.Setenv("MARKUP_PROJECT", "")

	_, _, err := execute(t, "apis", "enable", "--config", writeConfig(t, "dataset:\n  name: markup\n"))
	assert.ErrorContains(t, err, "invalid configuration")
	assert.ErrorContains(t, err, "Config.Project")
}

func TestSetupRequiresMerchantCenter(t *testing.T) {
	_, _, err := execute(t, "setup", "--project", "acme", "--config", writeConfig(t, "project: acme\n"))
	assert.EqualError(t, err, "must specify a merchant center id")
}

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "markup.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}
