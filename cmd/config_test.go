package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "build-optimizer", configBaseName)
	assert.Equal(t, "build-optimizer.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, "run.out_dir", runOutDirConfigKey)
	assert.Equal(t, "optimize.strict", strictConfigKey)
	assert.Equal(t, "optimize.source_map", sourceMapConfigKey)
	assert.Equal(t, 4, defaultRunParallel)
	assert.Equal(t, "BUILD_OPTIMIZER", envPrefix)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	configureLogger(filepath.Join(t.TempDir(), "test.log"), true)
	require.NotNil(t, globalLogger)
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))

	configureLogger(filepath.Join(t.TempDir(), "test.log"), false)
	assert.False(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))
}

func TestReadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.NoError(t, readConfig(), "missing config file")

	require.NoError(t, os.WriteFile(configFileName, []byte("run: [unclosed\n"), 0o644))
	assert.Error(t, readConfig(), "malformed config file")
}

func TestConfigureLoggerReportsConfigError(t *testing.T) {
	original, originalErr := slog.Default(), configErr
	t.Cleanup(func() {
		slog.SetDefault(original)
		configErr = originalErr
	})

	configErr = errors.New("yaml: line 1: did not find expected node content")
	logPath := filepath.Join(t.TempDir(), "test.log")
	configureLogger(logPath, false)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ignoring unreadable config file")
}
