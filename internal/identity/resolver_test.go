package identity

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

type fakeObject struct {
	typ   string
	props map[string]any
}

func (o fakeObject) ObjectType() string { return o.typ }

func (o fakeObject) Property(name string) (any, bool) {
	v, ok := o.props[name]
	return v, ok
}

func note(id any) fakeObject {
	return fakeObject{typ: "Note", props: map[string]any{"id": id}}
}

func author(id any) fakeObject {
	return fakeObject{typ: "Author", props: map[string]any{"id": id}}
}

func testRegistry(t *testing.T, opts ...schema.Option) *schema.Registry {
	t.Helper()
	reg, err := schema.Build([]schema.ObjectSchema{
		{
			Name: "Note",
			Properties: []schema.Property{
				{Name: "id", Kind: schema.KindString, PrimaryKey: true},
				{Name: "isDeleted", Kind: schema.KindBool},
			},
		},
		{
			Name:    "Author",
			Options: schema.SyncOptions{Scope: schema.ScopePublic},
			Properties: []schema.Property{
				{Name: "id", Kind: schema.KindInt, PrimaryKey: true},
				{Name: "isDeleted", Kind: schema.KindBool},
			},
		},
	}, opts...)
	require.NoError(t, err)
	return reg
}

func TestResolveNoteExample(t *testing.T) {
	r := New(testRegistry(t, schema.WithOwner("_principal")))

	id, err := r.Resolve(note("abc123"))
	require.NoError(t, err)

	assert.Equal(t, "abc123", id.RecordName)
	assert.Equal(t, record.ZoneID{ZoneName: "NotesZone", OwnerName: "_principal"}, id.Zone)
}

func TestResolveDeterministic(t *testing.T) {
	r := New(testRegistry(t))

	first, err := r.Resolve(note("same-key"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Resolve(note("same-key"))
			assert.NoError(t, err)
			assert.Equal(t, first, id)
		}()
	}
	wg.Wait()
}

func TestResolveIntKey(t *testing.T) {
	r := New(testRegistry(t))

	for _, key := range []any{42, int32(42), int64(42), uint16(42)} {
		id, err := r.Resolve(author(key))
		require.NoError(t, err)
		assert.Equal(t, "42", id.RecordName)
		assert.Equal(t, record.DefaultZone(), id.Zone)
	}

	id, err := r.Resolve(author(int64(-7)))
	require.NoError(t, err)
	assert.Equal(t, "-7", id.RecordName)

	id, err = r.Resolve(author(uint64(math.MaxInt64)))
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775807", id.RecordName)
}

func TestResolveRejectsUintAboveInt64(t *testing.T) {
	r := New(testRegistry(t))

	for _, key := range []any{uint64(math.MaxInt64) + 1, uint64(math.MaxUint64)} {
		_, err := r.Resolve(author(key))
		require.Error(t, err, "key %v", key)
		assert.True(t, schema.HasCode(err, schema.ErrCodeInvalidPrimaryKeyType))
	}
}

func TestResolveRejectsMalformedStrings(t *testing.T) {
	r := New(testRegistry(t))

	tests := []struct {
		name string
		key  string
		code IdentifierErrorCode
	}{
		{"non-ascii", "café", ErrCodeNonPrintable},
		{"emoji", "note-\U0001F600", ErrCodeNonPrintable},
		{"control", "a\tb", ErrCodeNonPrintable},
		{"leading underscore", "_private", ErrCodeLeadingUnderscore},
		{"too long", strings.Repeat("a", 256), ErrCodeTooLong},
		{"empty", "", ErrCodeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(note(tt.key))
			require.Error(t, err)

			var ie *IdentifierError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.code, ie.Code)
			assert.Equal(t, "Note", ie.Type)
			assert.Equal(t, tt.key, ie.Value, "key is reported unmodified")
		})
	}
}

func TestResolveAcceptsBoundaryStrings(t *testing.T) {
	r := New(testRegistry(t))

	for _, key := range []string{strings.Repeat("a", 255), "a_b", "with space", "~!@#"} {
		id, err := r.Resolve(note(key))
		require.NoError(t, err, key)
		assert.Equal(t, key, id.RecordName)
	}
}

func TestResolveSkipValidation(t *testing.T) {
	r := New(testRegistry(t), WithValidation(Skip))

	id, err := r.Resolve(note("_café"))
	require.NoError(t, err)
	assert.Equal(t, "_café", id.RecordName)
	assert.Equal(t, Skip, r.Validation())
}

func TestResolveConfigErrors(t *testing.T) {
	r := New(testRegistry(t))

	_, err := r.Resolve(fakeObject{typ: "Unknown"})
	assert.True(t, schema.HasCode(err, schema.ErrCodeMissingSchema))

	_, err = r.Resolve(note(12))
	assert.True(t, schema.HasCode(err, schema.ErrCodeInvalidPrimaryKeyType))

	_, err = r.Resolve(author("42"))
	assert.True(t, schema.HasCode(err, schema.ErrCodeInvalidPrimaryKeyType))

	_, err = r.Resolve(author(4.2))
	assert.True(t, schema.HasCode(err, schema.ErrCodeInvalidPrimaryKeyType))
}

func TestResolveMissingKey(t *testing.T) {
	r := New(testRegistry(t))

	_, err := r.Resolve(fakeObject{typ: "Note", props: map[string]any{}})
	require.Error(t, err)
	assert.True(t, IsIdentifierError(err))

	_, err = r.Resolve(note(nil))
	assert.True(t, IsIdentifierError(err))
}

func TestResolveBeforeFreeze(t *testing.T) {
	reg := schema.NewRegistry()
	r := New(reg)

	_, err := r.Resolve(note("abc"))
	assert.True(t, schema.HasCode(err, schema.ErrCodeRegistryNotFrozen))
}

func TestParseKey(t *testing.T) {
	reg := testRegistry(t)
	noteInfo, err := reg.Lookup("Note")
	require.NoError(t, err)
	authorInfo, err := reg.Lookup("Author")
	require.NoError(t, err)

	key, err := ParseKey(noteInfo, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)

	key, err = ParseKey(authorInfo, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), key)

	_, err = ParseKey(authorInfo, "forty-two")
	assert.True(t, IsIdentifierError(err))
}

func TestParseKeyInvertsResolve(t *testing.T) {
	r := New(testRegistry(t))
	info, err := r.Registry().Lookup("Author")
	require.NoError(t, err)

	id, err := r.ResolveKey(info, int64(9001))
	require.NoError(t, err)

	key, err := ParseKey(info, id.RecordName)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), key)
}

func TestParseValidation(t *testing.T) {
	v, err := ParseValidation("skip")
	require.NoError(t, err)
	assert.Equal(t, Skip, v)
	assert.Equal(t, "skip", v.String())

	v, err = ParseValidation("")
	require.NoError(t, err)
	assert.Equal(t, Strict, v)

	_, err = ParseValidation("loose")
	assert.Error(t, err)
}
