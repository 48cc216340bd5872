package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ssvep/internal/store"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "markers.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.BeginRun(ctx, store.Run{
		ID:         "run-1",
		StreamName: "PsychoPyMarkers",
		SourceID:   "myuidw43536",
		Planned:    6,
		StartedAt:  started,
	}))

	records := []store.MarkerRecord{
		{RunID: "run-1", Seq: 1, Code: 3, Offset: 0, Delivered: true},
		{RunID: "run-1", Seq: 2, Code: 13, Offset: 30 * time.Second, Delivered: true},
		{RunID: "run-1", Seq: 3, Code: 2, Offset: 30 * time.Second, Delivered: false, Error: "outlet closed"},
		{RunID: "run-1", Seq: 4, Code: 12, Offset: 35 * time.Second, Delivered: true},
	}
	for _, m := range records {
		require.NoError(t, st.WriteMarker(ctx, m))
	}
	require.NoError(t, st.FinishRun(ctx, "run-1", store.OutcomeAborted, started.Add(time.Minute)))
	return dbPath
}

func executeJournal(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewJournalCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJournal_ListRuns(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeJournal(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "aborted")
	assert.Contains(t, out, "6 phases")
}

func TestJournal_ListRunsJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeJournal(t, "json", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   JournalRuns `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "run-1", resp.Data.Runs[0].ID)
	assert.Equal(t, store.OutcomeAborted, resp.Data.Runs[0].Outcome)
}

func TestJournal_ShowRun(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeJournal(t, "text", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-1 (aborted)")
	assert.Contains(t, out, "rest_start")
	assert.Contains(t, out, "ssvep5_end")
	assert.Contains(t, out, "✗ outlet closed")
	assert.Contains(t, out, "Total: 4, delivered: 3, undelivered: 1, paired: true")
}

func TestJournal_ShowRunJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeJournal(t, "json", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   JournalMarkers `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Markers, 4)
	assert.Equal(t, int32(12), resp.Data.Markers[3].Code)
	assert.Equal(t, JournalStats{Total: 4, Delivered: 3, Undelivered: 1, Paired: true}, resp.Data.Stats)
}

func TestJournal_UnknownRun(t *testing.T) {
	dbPath := seedJournal(t)

	_, err := executeJournal(t, "text", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestJournal_MissingDatabase(t *testing.T) {
	_, err := executeJournal(t, "text", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestMarkerStats(t *testing.T) {
	tests := []struct {
		name   string
		codes  []int32
		paired bool
	}{
		{"empty", nil, true},
		{"one pair", []int32{3, 13}, true},
		{"dangling start", []int32{3, 13, 2}, false},
		{"mismatched end", []int32{3, 12}, false},
		{"full run", []int32{3, 13, 2, 12, 3, 13, 4, 14, 3, 13, 1, 11}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var markers []store.MarkerRecord
			for i, c := range tt.codes {
				markers = append(markers, store.MarkerRecord{Seq: int64(i + 1), Code: c, Delivered: true})
			}
			stats := markerStats(markers)
			assert.Equal(t, tt.paired, stats.Paired)
			assert.Equal(t, len(tt.codes), stats.Total)
			assert.Equal(t, len(tt.codes), stats.Delivered)
		})
	}
}
