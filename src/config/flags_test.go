package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--replay", "capture.txt", "--csv", "out.csv", "--log-format", "json"}))

	cfg, err := flags.Load()
	require.NoError(t, err)

	assert.Equal(t, "replay", cfg.Source.Kind)
	assert.Equal(t, "capture.txt", cfg.Source.Path)
	assert.Equal(t, "out.csv", cfg.Store.CSVPath)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "raw.log", cfg.Logs.RawPath)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: serial
  port: COM6
log:
  level: debug
`)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "--port", "/dev/ttyUSB1", "--baud", "115200"}))

	cfg, err := flags.Load()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Source.Port)
	assert.Equal(t, 115200, cfg.Source.BaudRate)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFlagsValidate(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--store", "postgres"}))

	_, err := flags.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.postgres_dsn")
}
