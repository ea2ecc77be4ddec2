package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importTeam creates a database holding testdata/documents/team.yaml and
// returns its path.
func importTeam(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "organizer.db")
	out, err := runCLI(t, "--db", db, "import", "testdata/documents/team.yaml")
	require.NoError(t, err, out)
	require.Contains(t, out, "✓ Imported 3 item(s) from 1 document(s)")
	return db
}

func decodeItems(t *testing.T, out string) ItemList {
	t.Helper()
	var resp struct {
		Status string   `json:"status"`
		Data   ItemList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestOccurrencesText_Golden(t *testing.T) {
	db := importTeam(t)

	out, err := runCLI(t, "--db", db, "occurrences", "standup", "--start", "2026-03-02", "--end", "2026-03-05")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "occurrences_window", []byte(out))
}

func TestOccurrencesJSON(t *testing.T) {
	db := importTeam(t)

	out, err := runCLI(t, "--db", db, "--format", "json",
		"occurrences", "organizer:sqlite#standup", "--max", "2", "--fields", "room")
	require.NoError(t, err)

	list := decodeItems(t, out)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "2026-03-01T09:00:00Z", list.Items[0].Start)
	assert.Equal(t, "2026-03-02T09:00:00Z", list.Items[1].Start)
	assert.Equal(t, "organizer:sqlite#standup", list.Items[0].Parent)
	assert.Equal(t, []string{"room"}, list.Items[0].Details.SortedKeys())
}

func TestOccurrences_Errors(t *testing.T) {
	db := importTeam(t)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"unknown item", []string{"occurrences", "nope"}, ExitFailure, "does_not_exist"},
		{"not recurring", []string{"occurrences", "retro"}, ExitFailure, "invalid_argument"},
		{"inverted window", []string{"occurrences", "standup", "--start", "2026-03-05", "--end", "2026-03-01"}, ExitFailure, "invalid_argument"},
		{"bad date", []string{"occurrences", "standup", "--start", "soon"}, ExitCommandError, "invalid --start"},
		{"foreign manager", []string{"occurrences", "other:store#standup"}, ExitFailure, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"--db", db}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			if tt.contains != "" {
				assert.Contains(t, out+err.Error(), tt.contains)
			}
		})
	}
}

func TestExportAndList(t *testing.T) {
	db := importTeam(t)

	out, err := runCLI(t, "--db", db, "--format", "json", "export", "--sort", "label")
	require.NoError(t, err)
	export := decodeItems(t, out)
	assert.Equal(t, []string{"Standup", "Standup (late)", "Write retro notes"}, labels(export))
	assert.NotNil(t, export.Items[0].Recurrence)

	out, err = runCLI(t, "--db", db, "--format", "json", "list", "--start", "2026-03-02", "--end", "2026-03-06")
	require.NoError(t, err)
	list := decodeItems(t, out)
	assert.Equal(t, []string{
		"2026-03-02T09:00:00Z",
		"2026-03-03T11:00:00Z",
		"2026-03-05T09:00:00Z",
		"2026-03-06T16:00:00Z",
	}, starts(list))

	out, err = runCLI(t, "--db", db, "--format", "json", "list", "--type", "todo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Write retro notes"}, labels(decodeItems(t, out)))

	_, err = runCLI(t, "--db", db, "list", "--type", "meeting")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport_Mask(t *testing.T) {
	db := importTeam(t)
	doc := filepath.Join(t.TempDir(), "retro.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(`items:
  retro:
    type: todo
    label: Retro notes (final)
    start: "2026-03-09T10:00:00Z"
`), 0o644))

	_, err := runCLI(t, "--db", db, "import", doc, "--mask", "label")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "--format", "json", "list", "--type", "todo")
	require.NoError(t, err)
	list := decodeItems(t, out)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Retro notes (final)", list.Items[0].Label)
	assert.Equal(t, "2026-03-06T16:00:00Z", list.Items[0].Start)
}

func TestImport_InvalidDocument(t *testing.T) {
	db := filepath.Join(t.TempDir(), "organizer.db")
	out, err := runCLI(t, "--db", db, "import", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E102")

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "database must not be created for an invalid document")
}

func TestRemove(t *testing.T) {
	db := importTeam(t)

	out, err := runCLI(t, "--db", db, "--format", "json", "remove", "retro", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Error  *CLIError    `json:"error"`
		Data   RemoveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "does_not_exist", resp.Error.Code)

	// Removing the recurring parent takes its exception along.
	out, err = runCLI(t, "--db", db, "remove", "standup")
	require.NoError(t, err)
	assert.Equal(t, "✓ Removed organizer:sqlite#standup\n", out)

	out, err = runCLI(t, "--db", db, "--format", "json", "export")
	require.NoError(t, err)
	assert.Equal(t, 0, decodeItems(t, out).Count)
}

func TestMetricsTextfile(t *testing.T) {
	db := importTeam(t)
	metrics := filepath.Join(t.TempDir(), "organizer.prom")

	_, err := runCLI(t, "--db", db, "--metrics-textfile", metrics, "occurrences", "standup")
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `organizer_requests_started_total{kind="item_occurrence_fetch"} 1`)
	assert.Contains(t, string(data), `organizer_requests_finished_total{kind="item_occurrence_fetch",state="finished"} 1`)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfg := filepath.Join(dir, "organizer.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("db: "+db+"\nmanager: organizer:team\n"), 0o644))

	out, err := runCLI(t, "--config", cfg, "--format", "json", "import", "testdata/documents/team.yaml")
	require.NoError(t, err)

	var resp struct {
		Data ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Data.Imported, "organizer:team#standup")

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func labels(list ItemList) []string {
	out := make([]string, len(list.Items))
	for i, v := range list.Items {
		out[i] = v.Label
	}
	return out
}

func starts(list ItemList) []string {
	out := make([]string, len(list.Items))
	for i, v := range list.Items {
		out[i] = v.Start
	}
	return out
}
