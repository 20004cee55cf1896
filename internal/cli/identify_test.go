package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{
			name:    "private string key",
			args:    []string{"Note", "abc123"},
			wantOut: "Note abc123 -> _owner/NotesZone/abc123\n",
		},
		{
			name:    "private int key",
			args:    []string{"Author", "42"},
			wantOut: "Author 42 -> _owner/AuthorsZone/42\n",
		},
		{
			name:    "public type",
			args:    []string{"Comment", "c1"},
			wantOut: "Comment c1 -> __defaultOwner__/_defaultZone/c1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			out, _, err := env.run(t, "", append([]string{"identify"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestIdentify_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "--format", "json", "identify", "Note", "abc123")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   IdentifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, IdentifyResult{
		Type:       "Note",
		RecordType: "Note",
		RecordName: "abc123",
		ZoneName:   "NotesZone",
		OwnerName:  "_owner",
	}, resp.Data)
}

func TestIdentify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{
			name:     "unknown type",
			args:     []string{"Nope", "x"},
			wantExit: ExitCommandError,
			wantCode: "MISSING_SCHEMA",
		},
		{
			name:     "int key not a number",
			args:     []string{"Author", "abc"},
			wantExit: ExitFailure,
			wantCode: "UNPARSABLE",
		},
		{
			name:     "leading underscore",
			args:     []string{"Note", "_hidden"},
			wantExit: ExitFailure,
			wantCode: "LEADING_UNDERSCORE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			out, _, err := env.run(t, "", append([]string{"--format", "json", "identify"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestIdentify_SkipValidation(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("RECMAP_VALIDATION", "skip")

	out, _, err := env.run(t, "", "identify", "Note", "_hidden")
	require.NoError(t, err)
	assert.Contains(t, out, "_owner/NotesZone/_hidden")
}
