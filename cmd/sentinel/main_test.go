package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milk9111/sentinel/record"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, tc := range tests {
		got, err := parseLevel(tc.in)
		if !tc.ok {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "skirmish", "standoff")
	require.NoError(t, err)
	require.Contains(t, out, "ok   skirmish")
	require.Contains(t, out, "ok   standoff")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\nsquads: []\n"), 0o644))
	out, err = execute(t, "validate", bad)
	require.Error(t, err)
	require.Contains(t, out, "FAIL")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	require.Equal(t, []string{"skirmish", "standoff"}, strings.Fields(out))
}

func TestRunCommandRecords(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	logPath := filepath.Join(dir, "sentinel.log")

	_, err := execute(t, "run", "standoff", "--ticks", "30", "--record", dbPath, "--log-file", logPath, "--log-level", "warn")
	require.NoError(t, err)

	db, err := record.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "standoff", runs[0].Scenario)

	scans, err := db.Scans(runs[0].ID)
	require.NoError(t, err)
	// two sentries scanning every 0.5s over half a second
	require.Len(t, scans, 2)

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(logs), `"msg":"recording run"`)
}

func TestRunCommandRejectsBadLevel(t *testing.T) {
	_, err := execute(t, "run", "standoff", "--ticks", "1", "--log-level", "loud")
	require.Error(t, err)
}
