package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/request"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E001", "load failed", map[string]string{"file": "a.yaml"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "load failed", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E005", "not found", map[string]string{"path": "x"}))
			assert.Contains(t, buf.String(), "Error [E005]: not found")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details:")))
		})
	}
}

func TestOutputFormatter_RequestError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.RequestError(request.Errorf(request.DoesNotExist, "item x"), nil)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, request.ErrDoesNotExist)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "does_not_exist", resp.Error.Code)
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Loaded %s", "team.yaml")
	assert.Empty(t, out.String())
	assert.Equal(t, "Loaded team.yaml\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.Equal(t, "Loaded team.yaml\n", errOut.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitCommandError, "open", errors.New("disk"))
	assert.Equal(t, "open: disk", wrapped.Error())
}

func TestNewItemView(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	v := NewItemView(item.Item{
		ParentID:      itemid.LocalItemID("organizer:test", "standup"),
		Type:          item.TypeEventOccurrence,
		DisplayLabel:  "Standup",
		Start:         start,
		OriginalStart: start,
		Details:       ir.Object{"room": ir.String("4B")},
	})

	assert.Equal(t, "", v.ID)
	assert.Equal(t, "organizer:test#standup", v.Parent)
	assert.Equal(t, "2026-03-02T09:00:00Z", v.Start)
	assert.Equal(t, "", v.End)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"parent": "organizer:test#standup",
		"type": "event-occurrence",
		"label": "Standup",
		"start": "2026-03-02T09:00:00Z",
		"original_start": "2026-03-02T09:00:00Z",
		"details": {"room": "4B"}
	}`, string(data))
}
