package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "validate")
	require.NoError(t, err)

	assert.Contains(t, out, "Note -> Note (_owner/NotesZone) key id")
	assert.Contains(t, out, "Author -> Author (_owner/AuthorsZone) key id")
	assert.Contains(t, out, "  author reference Author")
	assert.Contains(t, out, "warning: Note.comments is not synced")
	assert.Contains(t, out, "✓ 4 type(s) valid")
}

func TestValidate_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "--format", "json", "validate", filepath.Join("testdata", "schemas", "notes.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Types, 4)

	byName := map[string]TypeSummary{}
	for _, ts := range resp.Data.Types {
		byName[ts.Name] = ts
	}
	assert.True(t, byName["Attachment"].Asset)
	assert.Equal(t, "public", byName["Comment"].Scope)
	assert.NotEmpty(t, resp.Data.Warnings)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantCode string
		wantText string
	}{
		{
			name:     "registry error",
			file:     "no_primary_key.yaml",
			wantCode: "MISSING_PRIMARY_KEY",
			wantText: "no primary key declared",
		},
		{
			name:     "descriptor error",
			file:     "bad_properties.yaml",
			wantCode: ErrCodeDescriptor,
			wantText: "bad_properties.yaml:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join("testdata", "invalid", tt.file)

			out, _, err := env.run(t, "", "validate", path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.wantCode)
			assert.Contains(t, out, tt.wantText)

			out, _, err = env.run(t, "", "--format", "json", "validate", path)
			require.Error(t, err)
			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate_NonExistentPath(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "validate", "/nonexistent/descriptors")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}
