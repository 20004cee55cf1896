package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"int":            KindInt,
		"String":         KindString,
		"date":           KindTimestamp,
		"data":           KindBytes,
		"linkingObjects": KindLinkingObjects,
		" double ":       KindDouble,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("decimal")
	assert.Error(t, err)
}

func TestParseTypeExpr(t *testing.T) {
	tests := []struct {
		expr string
		want Property
	}{
		{"string", Property{Kind: KindString}},
		{"string?", Property{Kind: KindString, Optional: true}},
		{"[]int", Property{Kind: KindInt, List: true}},
		{"Author?", Property{Kind: KindObject, Target: "Author", Optional: true}},
		{"[]Note", Property{Kind: KindObject, Target: "Note", List: true}},
		{"[]mixed", Property{Kind: KindMixed, List: true}},
	}
	for _, tt := range tests {
		got, err := parseTypeExpr(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)
	}

	for _, bad := range []string{"", "[]", "?", "object"} {
		_, err := parseTypeExpr(bad)
		assert.Error(t, err, bad)
	}
}
