package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorRecord = `{"fields":{"id":{"kind":"int","value":7},"isDeleted":{"kind":"bool","value":false},"name":{"kind":"string","value":"Ada"}},"recordID":{"recordName":"7","zoneID":{"ownerName":"_owner","zoneName":"AuthorsZone"}},"recordType":"Author"}`
	noteRecord   = `{"fields":{"author":{"kind":"reference","value":{"action":"none","recordID":{"recordName":"7","zoneID":{"ownerName":"_owner","zoneName":"AuthorsZone"}}}},"cover":{"kind":"null"},"id":{"kind":"string","value":"abc123"},"isDeleted":{"kind":"bool","value":false},"tags":{"elem":"string","kind":"list","value":["x","y"]},"title":{"kind":"string","value":"Hello"},"views":{"kind":"int","value":3}},"recordID":{"recordName":"abc123","zoneID":{"ownerName":"_owner","zoneName":"NotesZone"}},"recordType":"Note"}`
)

var objectsFile = filepath.Join("testdata", "objects.json")

// seed stores the test objects by decoding their records.
func seed(t *testing.T, env *testEnv) {
	t.Helper()
	_, _, err := env.run(t, authorRecord+"\n"+noteRecord+"\n", "decode")
	require.NoError(t, err)
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestEncode_Input(t *testing.T) {
	env := newTestEnv(t)

	out, errOut, err := env.run(t, "", "encode", "--input", objectsFile)
	require.NoError(t, err)

	assert.Equal(t, []string{authorRecord, noteRecord}, lines(out))
	assert.Contains(t, errOut, "Note abc123: skipped comments: TO_MANY_RELATIONSHIP")
}

func TestEncode_InputJSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "--format", "json", "encode", "--input", objectsFile)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Records []json.RawMessage `json:"records"`
			Reports []struct {
				Type       string `json:"type"`
				RecordName string `json:"recordName"`
				Skipped    []struct {
					Property string `json:"property"`
					Code     string `json:"code"`
				} `json:"skipped"`
			} `json:"reports"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Records, 2)
	assert.JSONEq(t, noteRecord, string(resp.Data.Records[1]))

	require.Len(t, resp.Data.Reports, 2)
	assert.Empty(t, resp.Data.Reports[0].Skipped)
	assert.Equal(t, "Note", resp.Data.Reports[1].Type)
	require.Len(t, resp.Data.Reports[1].Skipped, 1)
	assert.Equal(t, "TO_MANY_RELATIONSHIP", resp.Data.Reports[1].Skipped[0].Code)
}

func TestEncode_ReferenceBeforeTarget(t *testing.T) {
	env := newTestEnv(t)
	input := filepath.Join(env.dir, "objects.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"type": "Note", "props": {"id": "n1", "author": 9}},
		{"type": "Author", "props": {"id": 9, "name": "Grace"}}
	]`), 0o600))

	out, _, err := env.run(t, "", "encode", "--input", input)
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], `"author":{"kind":"reference","value":{"action":"none","recordID":{"recordName":"9"`)
	assert.Contains(t, got[1], `"name":{"kind":"string","value":"Grace"}`)
}

func TestEncode_FromDatabase(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	out, _, err := env.run(t, "", "encode", "--type", "Note")
	require.NoError(t, err)
	assert.Equal(t, []string{noteRecord}, lines(out))

	out, _, err = env.run(t, "", "encode", "--type", "Author", "--key", "7")
	require.NoError(t, err)
	assert.Equal(t, []string{authorRecord}, lines(out))
}

func TestEncode_Since(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	out, _, err := env.run(t, "", "--format", "json", "encode", "--since", "0")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Records []json.RawMessage `json:"records"`
			LastSeq int64             `json:"lastSeq"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Records, 2)
	assert.JSONEq(t, authorRecord, string(resp.Data.Records[0]))
	assert.JSONEq(t, noteRecord, string(resp.Data.Records[1]))
	require.Positive(t, resp.Data.LastSeq)

	out, _, err = env.run(t, "", "encode", "--since", strconv.FormatInt(resp.Data.LastSeq, 10))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEncode_MetricsFile(t *testing.T) {
	env := newTestEnv(t)
	metrics := filepath.Join(env.dir, "codec.prom")

	_, _, err := env.run(t, "", "encode", "--input", objectsFile, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `recmap_records_encoded_total{record_type="Note"} 1`)
	assert.Contains(t, text, `recmap_fields_skipped_total{code="TO_MANY_RELATIONSHIP",record_type="Note"} 1`)
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantText string
	}{
		{"no selector", []string{"encode"}, ExitCommandError, "one of --input, --type or --since is required"},
		{"exclusive selectors", []string{"encode", "--type", "Note", "--since", "0"}, ExitCommandError, "exclusive"},
		{"key without type", []string{"encode", "--since", "0", "--key", "x"}, ExitCommandError, "--key requires --type"},
		{"unknown type", []string{"encode", "--type", "Nope"}, ExitCommandError, "MISSING_SCHEMA"},
		{"missing object", []string{"encode", "--type", "Note", "--key", "nope"}, ExitFailure, "not found"},
		{"missing input", []string{"encode", "--input", "testdata/none.json"}, ExitCommandError, "failed to read input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			out, _, err := env.run(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, out, tt.wantText)
		})
	}
}

func TestCheckEncodeFlags(t *testing.T) {
	assert.NoError(t, checkEncodeFlags(&EncodeOptions{Type: "Note", Keys: []string{"a"}, Since: -1}))
	assert.NoError(t, checkEncodeFlags(&EncodeOptions{Since: 0}))
	assert.EqualError(t, checkEncodeFlags(&EncodeOptions{Since: 3, Keys: []string{"a"}}), "--key requires --type")
}

func TestEncode_GeneratedKeyAndFingerprints(t *testing.T) {
	env := newTestEnv(t)
	input := filepath.Join(env.dir, "objects.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"type": "Note", "props": {"title": "untitled"}}]`), 0o600))

	out, _, err := env.run(t, "", "--format", "json", "encode", "--input", input)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Records []struct {
				RecordID struct {
					RecordName string `json:"recordName"`
				} `json:"recordID"`
			} `json:"records"`
			Fingerprints []string `json:"fingerprints"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Records, 1)
	assert.Len(t, resp.Data.Records[0].RecordID.RecordName, 36, "UUID record name")
	require.Len(t, resp.Data.Fingerprints, 1)
	assert.Len(t, resp.Data.Fingerprints[0], 64)

	// Same objects, same fingerprints.
	first, _, err := env.run(t, "", "--format", "json", "encode", "--input", objectsFile)
	require.NoError(t, err)
	second, _, err := env.run(t, "", "--format", "json", "encode", "--input", objectsFile)
	require.NoError(t, err)
	assert.JSONEq(t, first, second)
}

func TestEncode_InputMissingIntKey(t *testing.T) {
	env := newTestEnv(t)
	input := filepath.Join(env.dir, "objects.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"type": "Author", "props": {"name": "Anon"}}]`), 0o600))

	out, _, err := env.run(t, "", "encode", "--input", input)
	require.Error(t, err)
	assert.Contains(t, out, "input[0]: Author object has no primary key")
}
