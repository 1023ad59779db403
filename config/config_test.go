package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sghaida/objectgraph/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objectgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestDefault verifies the zero configuration is eager and valid.
func TestDefault(t *testing.T) {
	t.Parallel()

	opts := config.Default()
	assert.False(t, opts.Lazy)
	assert.False(t, opts.DetectProblems)
	assert.Equal(t, "info", opts.LogLevel)
	require.NoError(t, opts.Validate())
}

// TestValidate verifies field rules.
func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		wantErr string
	}{
		{name: "debug", level: "debug"},
		{name: "error", level: "error"},
		{name: "missing", level: "", wantErr: "config: loglevel is required"},
		{name: "unknown", level: "trace", wantErr: "config: loglevel must be one of: debug info warn error"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := config.Default()
			opts.LogLevel = tc.level
			err := opts.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tc.wantErr)
		})
	}
}

// TestLoad_File verifies YAML values replace defaults.
// Not parallel: Load reads the process environment.
func TestLoad_File(t *testing.T) {
	path := writeFile(t, "lazy: true\nvalidate: true\nlog_level: debug\nmetrics: true\nregistry_file: reg.yaml\n")

	opts, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, opts.Lazy)
	assert.True(t, opts.DetectProblems)
	assert.True(t, opts.Metrics)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "reg.yaml", opts.RegistryFile)
}

// TestLoad_EnvWinsOverFile verifies OBJECTGRAPH_* variables override file values.
func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := writeFile(t, "lazy: true\nlog_level: debug\n")
	t.Setenv("OBJECTGRAPH_LAZY", "false")
	t.Setenv("OBJECTGRAPH_VALIDATE", "1")
	t.Setenv("OBJECTGRAPH_LOG_LEVEL", "warn")

	opts, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, opts.Lazy)
	assert.True(t, opts.DetectProblems)
	assert.Equal(t, "warn", opts.LogLevel)
}

// TestLoad_Errors verifies unreadable files, bad YAML, bad booleans and invalid values fail.
func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Load(writeFile(t, "lazy: [\n"))
	require.ErrorContains(t, err, "config: decode")

	_, err = config.Load(writeFile(t, "log_level: loud\n"))
	require.ErrorContains(t, err, "loglevel must be one of")

	t.Setenv("OBJECTGRAPH_METRICS", "sometimes")
	_, err = config.Load("")
	require.EqualError(t, err, `config: OBJECTGRAPH_METRICS must be a boolean, got "sometimes"`)
}

// TestNewLogger verifies the logger honors the configured level.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	opts := config.Default()
	opts.LogLevel = "warn"
	logger, err := opts.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	opts.LogLevel = "nope"
	_, err = opts.NewLogger()
	require.Error(t, err)
}
