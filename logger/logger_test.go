package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_ProductionWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	child := log.With(String("run_id", "abc"))
	child.Debug("hidden")
	child.Info("page processed", Int("page", 2), Bool("last", false))
	child.Error("download failed", Error(errors.New("boom")))
	require.NoError(t, log.Sync())

	entries := readEntries(t, path)
	require.Len(t, entries, 2, "debug is below the level")

	assert.Equal(t, "page processed", entries[0]["msg"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "abc", entries[0]["run_id"])
	assert.InDelta(t, 2, entries[0]["page"], 0)
	assert.Equal(t, false, entries[0]["last"])

	assert.Equal(t, "boom", entries[1]["error"])
	assert.Equal(t, "abc", entries[1]["run_id"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Config{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "run.log")}})

	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := NewNop()

	log.Info("ignored", String("k", "v"))
	assert.Same(t, log, log.With(Int("n", 1)))
	assert.NoError(t, log.Sync())
}
