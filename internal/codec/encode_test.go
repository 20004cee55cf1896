package codec_test

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
	"github.com/roach88/recmap/internal/testutil"
)

func newEncoder(t *testing.T, opts ...codec.Option) *codec.Encoder {
	t.Helper()
	enc, err := codec.NewEncoder(testutil.Resolver(t), opts...)
	require.NoError(t, err)
	return enc
}

func assertGolden(t *testing.T, name string, rec *record.Record) {
	t.Helper()
	data, err := record.MarshalCanonical(rec)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestEncodeNote(t *testing.T) {
	enc := newEncoder(t)
	note := testutil.NewNote("abc123", map[string]any{
		"title": "Hello",
		"tags":  []string{"x", "y"},
	})

	rec, report, err := enc.Encode(note)
	require.NoError(t, err)

	assert.Equal(t, "Note", rec.Type)
	assert.Equal(t, record.RecordID{
		RecordName: "abc123",
		Zone:       record.ZoneID{ZoneName: "NotesZone", OwnerName: testutil.Owner},
	}, rec.ID)
	assert.False(t, report.Deleted)
	assertGolden(t, "note_basic", rec)
}

func TestEncodeAllShapes(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	attachment, err := asset.Import(ctx, store, "Attachment", "cover.png", strings.NewReader("hello"), "image/png")
	require.NoError(t, err)

	enc := newEncoder(t, codec.WithAssets(asset.NewProvider(store)))
	note := testutil.NewNote("n1", map[string]any{
		"title":      "Full",
		"views":      42,
		"pinned":     true,
		"rating":     float32(4.5),
		"score":      0.1,
		"thumbnail":  []byte("hi"),
		"createdAt":  testutil.Epoch,
		"tags":       []string{"x"},
		"scores":     []float64{1, 2.5},
		"author":     testutil.NewAuthor(7, "Ada"),
		"attachment": attachment,
		"comments":   []*model.Object{testutil.NewComment("c1", "first")},
		"extras":     []any{"a", 1},
	})

	rec, report, err := enc.Encode(note)
	require.NoError(t, err)
	assertGolden(t, "note_full", rec)

	assert.Len(t, report.Skipped, 2)
	assert.True(t, report.Has("comments", codec.CodeToManyRelationship))
	assert.True(t, report.Has("extras", codec.CodeUnsupportedListElement))
	assert.False(t, rec.Has("comments"))
	assert.False(t, rec.Has("extras"))
}

func TestEncodeEmptyListOmitted(t *testing.T) {
	rec, report, err := newEncoder(t).Encode(testutil.NewNote("a", map[string]any{
		"tags": []string{},
	}))
	require.NoError(t, err)

	assert.False(t, rec.Has("tags"))
	assert.False(t, report.Has("tags", codec.CodeTypeMismatch))
}

func TestEncodeListKeepsOrderAndDuplicates(t *testing.T) {
	rec, _, err := newEncoder(t).Encode(testutil.NewNote("a", map[string]any{
		"tags": []string{"b", "a", "b"},
	}))
	require.NoError(t, err)

	v, ok := rec.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []any{"b", "a", "b"}, v.(record.List).Materialize())
}

func TestEncodeAbsentScalarOmittedAbsentReferenceNull(t *testing.T) {
	rec, _, err := newEncoder(t).Encode(testutil.NewNote("a", nil))
	require.NoError(t, err)

	assert.False(t, rec.Has("title"))
	assert.True(t, rec.IsNull("author"))
	assert.True(t, rec.IsNull("attachment"))
}

func TestEncodeTypedNilReferenceIsNull(t *testing.T) {
	var author *model.Object
	rec, _, err := newEncoder(t).Encode(testutil.NewNote("a", map[string]any{"author": author}))
	require.NoError(t, err)
	assert.True(t, rec.IsNull("author"))
}

func TestEncodeSoftDeleteFlag(t *testing.T) {
	rec, report, err := newEncoder(t).Encode(testutil.NewNote("a", map[string]any{"isDeleted": true}))
	require.NoError(t, err)

	assert.True(t, report.Deleted)
	v, _ := rec.Get("isDeleted")
	assert.Equal(t, record.Bool(true), v)
}

func TestEncodeFieldIssues(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		prop  string
		code  codec.FieldCode
	}{
		{"scalar type mismatch", map[string]any{"views": "many"}, "views", codec.CodeTypeMismatch},
		{"nan", map[string]any{"score": math.NaN()}, "score", codec.CodeTypeMismatch},
		{"list element mismatch", map[string]any{"tags": []any{"a", 2}}, "tags", codec.CodeTypeMismatch},
		{"reference not an object", map[string]any{"author": "Ada"}, "author", codec.CodeTypeMismatch},
		{"reference wrong type", map[string]any{"author": testutil.NewComment("c", "x")}, "author", codec.CodeTypeMismatch},
		{"reference without key", map[string]any{"author": model.New("Author", map[string]any{"name": "Ada"})}, "author", codec.CodeInvalidReference},
		{"asset without provider", map[string]any{"attachment": testutil.NewAttachment("a", 1, "")}, "attachment", codec.CodeNoAssetProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, report, err := newEncoder(t).Encode(testutil.NewNote("a", tt.props))
			require.NoError(t, err)
			assert.True(t, report.Has(tt.prop, tt.code), report.String())
			assert.False(t, rec.Has(tt.prop))
		})
	}
}

func TestEncodeBrokenAssetWrapper(t *testing.T) {
	enc := newEncoder(t, codec.WithAssets(asset.NewProvider(nil)))
	wrapper := model.New("Attachment", map[string]any{asset.PropKey: "a"})

	rec, report, err := enc.Encode(testutil.NewNote("a", map[string]any{"attachment": wrapper}))
	require.NoError(t, err)
	assert.True(t, report.Has("attachment", codec.CodeTypeMismatch))
	assert.False(t, rec.Has("attachment"))
}

func TestEncodeIdentityErrors(t *testing.T) {
	enc := newEncoder(t)

	_, _, err := enc.Encode(model.New("Note", map[string]any{"title": "no id"}))
	require.Error(t, err)
	assert.True(t, identity.IsIdentifierError(err))

	_, _, err = enc.Encode(testutil.NewNote("_reserved", nil))
	require.Error(t, err)
	assert.True(t, identity.IsIdentifierError(err))

	_, _, err = enc.Encode(model.New("Unknown", map[string]any{"id": "x"}))
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeMissingSchema))
}

func TestEncodeSkipValidation(t *testing.T) {
	enc, err := codec.NewEncoder(testutil.Resolver(t, identity.WithValidation(identity.Skip)))
	require.NoError(t, err)

	rec, _, err := enc.Encode(testutil.NewNote("_reserved", nil))
	require.NoError(t, err)
	assert.Equal(t, "_reserved", rec.ID.RecordName)
}

func TestSkipValidationKeyRoundTripsThroughJSON(t *testing.T) {
	enc, err := codec.NewEncoder(testutil.Resolver(t, identity.WithValidation(identity.Skip)))
	require.NoError(t, err)

	rec, _, err := enc.Encode(testutil.NewNote("cafe\u0301", map[string]any{"title": "e\u0301"}))
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var wire record.Record
	require.NoError(t, json.Unmarshal(data, &wire))

	f := newDecodeFixture(t)
	obj, _, err := f.dec.Decode(context.Background(), &wire)
	require.NoError(t, err)
	assert.Equal(t, "cafe\u0301", prop(t, obj, "id"))
	assert.Equal(t, "e\u0301", prop(t, obj, "title"))

	_, found := f.resolver.Get("Note", "cafe\u0301")
	assert.True(t, found)
}

func TestEncodePublicTypeUsesDefaultZone(t *testing.T) {
	rec, _, err := newEncoder(t).Encode(testutil.NewComment("c1", "hi"))
	require.NoError(t, err)
	assert.Equal(t, record.DefaultZone(), rec.ID.Zone)
}

func TestEncodeIntKey(t *testing.T) {
	rec, report, err := newEncoder(t).Encode(testutil.NewAuthor(42, "Ada"))
	require.NoError(t, err)

	assert.Equal(t, "42", rec.ID.RecordName)
	assert.True(t, report.Has("notes", codec.CodeToManyRelationship))
	v, _ := rec.Get("id")
	assert.Equal(t, record.Int(42), v)
}

func TestEncodeFingerprintStable(t *testing.T) {
	enc := newEncoder(t)
	note := testutil.NewNote("a", map[string]any{"title": "x", "tags": []string{"t"}})

	first, _, err := enc.Encode(note)
	require.NoError(t, err)
	second, _, err := enc.Encode(note.Clone())
	require.NoError(t, err)
	assert.Equal(t, record.MustFingerprint(first), record.MustFingerprint(second))

	note.SetProperty("title", "y")
	third, _, err := enc.Encode(note)
	require.NoError(t, err)
	assert.NotEqual(t, record.MustFingerprint(first), record.MustFingerprint(third))
}

func TestNewEncoderRequiresFrozenRegistry(t *testing.T) {
	reg := schema.NewRegistry()
	_, err := reg.Register(testutil.CommentSchema())
	require.NoError(t, err)

	_, err = codec.NewEncoder(identity.New(reg))
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeRegistryNotFrozen))
}

func TestEncoderPlan(t *testing.T) {
	enc := newEncoder(t)
	plan, ok := enc.Plan("Note")
	require.True(t, ok)
	assert.Equal(t, "Note", plan.Info.Name())

	_, ok = enc.Plan("Missing")
	assert.False(t, ok)
}
