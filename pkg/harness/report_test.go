package harness

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	return &Report{
		Child: "/bin/testchild",
		Phases: []PhaseResult{
			{Number: 1, Name: "basic execution", Status: StatusOK, Detail: "exit code 0", Duration: 2 * time.Second},
			{Number: 2, Name: "argument passing", Status: StatusWarn, Detail: "expected exit code 17, got 3", Duration: 1500 * time.Millisecond},
		},
	}
}

func TestReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, "text"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "PHASE"))
	assert.Contains(t, lines[1], "basic execution")
	assert.Contains(t, lines[2], "1.5s")
	assert.Equal(t, "1 ok, 1 warn, 0 fail", lines[4])
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, "yaml"))

	var got struct {
		Child  string `yaml:"child"`
		Passed bool   `yaml:"passed"`
		Phases []struct {
			Number     int    `yaml:"number"`
			Status     string `yaml:"status"`
			DurationMS int64  `yaml:"duration_ms"`
		} `yaml:"phases"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "/bin/testchild", got.Child)
	assert.True(t, got.Passed)
	require.Len(t, got.Phases, 2)
	assert.Equal(t, "warn", got.Phases[1].Status)
	assert.Equal(t, int64(1500), got.Phases[1].DurationMS)
}

func TestReportJSON(t *testing.T) {
	r := sampleReport()
	r.Phases = append(r.Phases, PhaseResult{Number: 5, Name: "error handling", Status: StatusFail})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["passed"])
	phases := got["phases"].([]any)
	require.Len(t, phases, 3)
	last := phases[2].(map[string]any)
	assert.Equal(t, "fail", last["status"])
	assert.NotContains(t, last, "detail")
	assert.Equal(t, map[string]any{"ok": 1.0, "warn": 1.0, "fail": 1.0}, got["summary"])
}

func TestReportUnknownFormat(t *testing.T) {
	assert.Error(t, sampleReport().Write(&bytes.Buffer{}, "xml"))
}
