package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCUEShorthand(t *testing.T) {
	src := `
types: Note: {
	primaryKey: "id"
	recordType: "CD_Note"
	properties: {
		id:        "string"
		title:     "string?"
		tags:      "[]string"
		author:    "Author?"
		isDeleted: "bool"
	}
}
`
	schemas, err := LoadCUE("note.cue", []byte(src))
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	s := schemas[0]
	assert.Equal(t, "Note", s.Name)
	assert.Equal(t, "CD_Note", s.Options.RecordType)

	names := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"id", "title", "tags", "author", "isDeleted"}, names, "declaration order is kept")

	assert.Equal(t, Property{Name: "id", Kind: KindString, PrimaryKey: true}, s.Properties[0])
	assert.Equal(t, Property{Name: "tags", Kind: KindString, List: true}, s.Properties[2])
	assert.Equal(t, Property{Name: "author", Kind: KindObject, Target: "Author", Optional: true}, s.Properties[3])
}

func TestLoadCUELongForm(t *testing.T) {
	src := `
types: Author: {
	scope: "public"
	properties: {
		id:        {kind: "int", primaryKey: true}
		nicknames: {kind: "string", list: true}
		notes:     {kind: "linkingObjects", target: "Note"}
		isDeleted: {type: "bool"}
	}
}
`
	schemas, err := LoadCUE("author.cue", []byte(src))
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	s := schemas[0]
	assert.Equal(t, ScopePublic, s.Options.Scope)
	assert.True(t, s.Properties[0].PrimaryKey)
	assert.Equal(t, KindInt, s.Properties[0].Kind)
	assert.True(t, s.Properties[1].List)
	assert.Equal(t, "Note", s.Properties[2].Target)
	assert.Equal(t, KindBool, s.Properties[3].Kind)
}

func TestLoadCUEErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `types: Note: {`},
		{"missing properties", `types: Note: {primaryKey: "id"}`},
		{"unknown primary key", `types: Note: {primaryKey: "nope", properties: {id: "string"}}`},
		{"bad property", `types: Note: {properties: {id: {list: true}}}`},
		{"wrong field type", `types: Note: {asset: "yes", properties: {id: "string"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCUE("bad.cue", []byte(tt.src))
			require.Error(t, err)
		})
	}
}

func TestLoadCUEErrorPosition(t *testing.T) {
	src := "types: Note: {\n\tproperties: {\n\t\tid: \"object\"\n\t}\n}\n"
	_, err := LoadCUE("pos.cue", []byte(src))
	require.Error(t, err)

	var de *DescriptorError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Note.id", de.Field)
	assert.Equal(t, 3, de.Line)
}

func TestLoadCUENoTypes(t *testing.T) {
	schemas, err := LoadCUE("empty.cue", []byte(`other: 1`))
	require.NoError(t, err)
	assert.Empty(t, schemas)
}
