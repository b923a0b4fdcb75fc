package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/comboer/internal/monitoring"
	"github.com/banshee-data/comboer/internal/store"
)

const testReactions = `[
  {
    "name": "pipi_p",
    "num_plus_minus_rf_bunches": 0,
    "steps": [
      {"initial": "Gamma", "target": "Proton", "finals": [{"pid": "Pi+"}, {"pid": "Pi-"}, {"pid": "Proton"}]}
    ]
  }
]`

// Event 1 holds one candidate of each kind, in time with the RF and the beam.
// Event 2 has no proton.
const testEvents = `{"number": 1, "rf_time": 0,
 "tracks": [
  {"id": 0, "position": {"Z": 65}, "hypotheses": [{"pid": "Pi+", "momentum": {"Z": 1}, "time": 0}]},
  {"id": 1, "position": {"Z": 65}, "hypotheses": [{"pid": "Pi-", "momentum": {"Z": 1}, "time": 0}]},
  {"id": 2, "position": {"Z": 65}, "hypotheses": [{"pid": "Proton", "momentum": {"Z": 1}, "time": 0}]}
 ],
 "beams": [{"id": 0, "energy": 9, "time": 0}]}
{"number": 2, "rf_time": 0,
 "tracks": [
  {"id": 0, "position": {"Z": 65}, "hypotheses": [{"pid": "Pi+", "momentum": {"Z": 1}, "time": 0}]},
  {"id": 1, "position": {"Z": 65}, "hypotheses": [{"pid": "Pi-", "momentum": {"Z": 1}, "time": 0}]}
 ],
 "beams": [{"id": 0, "energy": 9, "time": 0}]}
`

func writeInputs(t *testing.T) (reactions, events string) {
	t.Helper()
	dir := t.TempDir()
	reactions = filepath.Join(dir, "reactions.json")
	events = filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(reactions, []byte(testReactions), 0o644))
	require.NoError(t, os.WriteFile(events, []byte(testEvents), 0o644))
	return reactions, events
}

func TestRun(t *testing.T) {
	t.Cleanup(func() { monitoring.SetLogWriters(monitoring.LogWriters{}) })
	reactions, events := writeInputs(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-reactions", reactions, "-events", events, "-db", dbPath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Regexp(t, `pipi_p\s+1\n`, stdout.String())
	assert.Contains(t, stderr.String(), "processed 2 events")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	var runID string
	require.NoError(t, st.QueryRow(`SELECT id FROM runs`).Scan(&runID))
	totals, err := st.ReactionTotals(runID)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, store.ReactionTotal{Reaction: "pipi_p", Events: 1, NumCombos: 1}, totals[0])
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "comboer dev")
}

func TestRunConfig(t *testing.T) {
	t.Cleanup(func() { monitoring.SetLogWriters(monitoring.LogWriters{}) })
	reactions, events := writeInputs(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-reactions", reactions, "-events", events}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "[comboer] config ../../config/comboer.defaults.json")

	tuning := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(tuning, []byte(`{"debug_level": 1}`), 0o644))
	stdout.Reset()
	stderr.Reset()
	require.NoError(t, run([]string{"-reactions", reactions, "-events", events, "-config", tuning}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "[comboer] config "+tuning)
	assert.Contains(t, stderr.String(), "[comboer] event=1 ")
	assert.Equal(t, 1, strings.Count(stderr.String(), "[comboer] event=1 "))
}

func TestRunErrors(t *testing.T) {
	t.Cleanup(func() { monitoring.SetLogWriters(monitoring.LogWriters{}) })
	reactions, events := writeInputs(t)

	var stdout, stderr bytes.Buffer
	assert.Error(t, run(nil, &stdout, &stderr), "missing inputs")
	assert.Error(t, run([]string{"-reactions", reactions, "-events", filepath.Join(t.TempDir(), "none.jsonl")}, &stdout, &stderr))
	assert.Error(t, run([]string{"-reactions", reactions, "-events", events, "-config", "tuning.yaml"}, &stdout, &stderr))
	assert.Error(t, run([]string{"-bogus"}, &stdout, &stderr))
}
