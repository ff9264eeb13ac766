package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proj2.out")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVerifyCommand_Pass(t *testing.T) {
	path := writeLog(t, testutil.SmallTrace)
	stdout, _, err := execute(t, "", "verify", "--trucks", "1", "--cars", "1", "--format", "json", path)
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.Passed)
	assert.Equal(t, path, report.Source)
}

func TestVerifyCommand_FailExitsWithSentinel(t *testing.T) {
	stdout, _, err := execute(t, testutil.UnfinishedTrace(), "verify", "--trucks", "1", "--cars", "1", "-")
	assert.ErrorIs(t, err, errVerificationFailed)
	assert.Contains(t, stdout, "ferry did not finish its journey")
	assert.Contains(t, stdout, "port-switch")
}

func TestVerifyCommand_Profile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "small.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("trucks: 1\ncars: 1\n"), 0644))
	path := writeLog(t, testutil.SmallTrace)

	_, _, err := execute(t, "", "verify", "--profile", profile, path)
	require.NoError(t, err)

	// explicit flags win over the profile
	_, _, err = execute(t, "", "verify", "--profile", profile, "--trucks", "2", path)
	assert.ErrorIs(t, err, errVerificationFailed)
}

func TestVerifyCommand_Only(t *testing.T) {
	stdout, _, err := execute(t, testutil.UnfinishedTrace(), "verify", "--only", "ordering,capacity", "-f", "json", "-")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Results, 2)
}

func TestVerifyCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"verify", filepath.Join(t.TempDir(), "absent.out")}, "cannot read log"},
		{"bad capacity", []string{"verify", "--capacity", "1", "-"}, "invalid verification config"},
		{"unknown checker", []string{"verify", "--only", "nope", "-"}, "checker not found"},
		{"bad format", []string{"verify", "--format", "xml", "-"}, "unknown report format"},
		{"bad log level", []string{"verify", "--log-level", "loud", "-"}, "invalid --log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, testutil.SmallTrace, tt.args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, errVerificationFailed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestChecksCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "checks")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, "identity-coverage", lines[0])
	assert.Equal(t, "causal-order", lines[9])
}
