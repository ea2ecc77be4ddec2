package compiler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

const testManager = "organizer:test"

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}

// assertTeamDocument checks the items of testdata/team.{cue,yaml}.
func assertTeamDocument(t *testing.T, items []item.Item) {
	t.Helper()
	require.Len(t, items, 3)

	// Parents first, then by key.
	assert.True(t, items[0].ID.Equal(itemid.LocalItemID(testManager, "retro")))
	assert.True(t, items[1].ID.Equal(itemid.LocalItemID(testManager, "standup")))
	assert.True(t, items[2].ID.Equal(itemid.LocalItemID(testManager, "standup-moved")))

	standup := items[1]
	assert.Equal(t, item.TypeEvent, standup.Type)
	assert.Equal(t, "Standup", standup.DisplayLabel)
	assert.Equal(t, "Daily sync", standup.Description)
	assert.Equal(t, 15*time.Minute, standup.Duration())
	require.NotNil(t, standup.Recurrence)
	assert.Equal(t, item.Daily, standup.Recurrence.Frequency)
	assert.Equal(t, 5, standup.Recurrence.Count)
	assert.Equal(t, []time.Time{mustTime(t, "2026-03-04T09:00:00Z")}, standup.Recurrence.Exceptions)
	assert.Equal(t, ir.Object{
		"room":     ir.String("4B"),
		"capacity": ir.Int(8),
		"remote":   ir.Bool(true),
	}, standup.Details)

	moved := items[2]
	assert.Equal(t, item.TypeEventOccurrence, moved.Type)
	assert.True(t, moved.ParentID.Equal(standup.ID))
	assert.True(t, moved.OriginalStart.Equal(mustTime(t, "2026-03-03T09:00:00Z")))
	assert.True(t, moved.Start.Equal(mustTime(t, "2026-03-03T11:00:00Z")))

	assert.Empty(t, Validate(items))
}

func TestLoadFile_CUE(t *testing.T) {
	items, err := LoadFile(filepath.Join("testdata", "team.cue"), testManager)
	require.NoError(t, err)
	assertTeamDocument(t, items)
}

func TestLoadFile_YAML(t *testing.T) {
	items, err := LoadFile(filepath.Join("testdata", "team.yaml"), testManager)
	require.NoError(t, err)
	assertTeamDocument(t, items)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := LoadFile(path, testManager)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document extension")
}

func TestLoadFile_ValidationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	src := `
items:
  lunch:
    type: event
    start: "2026-03-01T12:00:00Z"
  orphan:
    type: event-occurrence
    parent: lunch
    original_start: "2026-03-01T12:00:00Z"
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	_, err := LoadFile(path, testManager)
	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	require.Len(t, docErr.Errors, 1)
	assert.Equal(t, ErrParentNotRecurring, docErr.Errors[0].Code)
	assert.Equal(t, "items.orphan.parent", docErr.Errors[0].Field)
}

func TestCompileCUE_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown type", `items: a: {type: "meeting"}`},
		{"unknown field", `items: a: {type: "event", colour: "red"}`},
		{"bad time", `items: a: {type: "event", start: "tomorrow"}`},
		{"bad frequency", `items: a: {type: "event", start: "2026-01-01T00:00:00Z", recurrence: frequency: "hourly"}`},
		{"float detail", `items: a: {type: "event", details: weight: 1.5}`},
		{"zero interval", `items: a: {type: "event", start: "2026-01-01T00:00:00Z", recurrence: {frequency: "daily", interval: 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "doc.cue", testManager)
			assert.Error(t, err)
		})
	}
}

func TestCompileCUE_ErrorPosition(t *testing.T) {
	_, err := CompileCUE([]byte("items: a: {\n\ttype: \"event\"\n\tstart: \n}\n"), "doc.cue", testManager)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Equal(t, "doc.cue", ce.Pos.Filename())
	assert.Equal(t, "cue", ce.Field)
}

func TestCompileCUE_SchemaViolationsAreCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
	}{
		{"unknown type", "items: a: {\n\ttype: \"meeting\"\n}\n", "items.a.type"},
		{"float detail", "items: a: {\n\ttype: \"event\"\n\tdetails: load: 0.5\n}\n", "items.a.details.load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "doc.cue", testManager)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "cue", ce.Field)
			assert.Contains(t, ce.Message, tt.path)
		})
	}
}

func TestCompileCUE_Empty(t *testing.T) {
	items, err := CompileCUE([]byte(``), "empty.cue", testManager)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCompileItems_NestedDetails(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		items: a: {
			type: "note"
			details: {
				tags: ["x", "y"]
				meta: {level: 2}
			}
		}
	`)
	require.NoError(t, v.Err())

	items, err := CompileItems(v.LookupPath(cue.ParsePath("items")), testManager)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ir.Object{
		"tags": ir.List{ir.String("x"), ir.String("y")},
		"meta": ir.Object{"level": ir.Int(2)},
	}, items[0].Details)
}

func TestCompileYAML_UnknownField(t *testing.T) {
	_, err := CompileYAML([]byte("items:\n  a:\n    type: event\n    colour: red\n"), testManager)
	assert.Error(t, err)
}

func TestCompileYAML_FloatDetail(t *testing.T) {
	_, err := CompileYAML([]byte("items:\n  a:\n    type: event\n    details:\n      weight: 1.5\n"), testManager)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "items.a.details", ce.Field)
}

func TestCompileYAML_BadTime(t *testing.T) {
	_, err := CompileYAML([]byte("items:\n  a:\n    type: event\n    start: yesterday\n"), testManager)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "items.a.start", ce.Field)
}
