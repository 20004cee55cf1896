package asset_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
	"github.com/roach88/recmap/internal/testutil"
)

const helloSHA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestSchemaRegisters(t *testing.T) {
	reg, err := schema.Build([]schema.ObjectSchema{asset.Schema("Photo")}, schema.WithOwner("_owner"))
	require.NoError(t, err)

	info, err := reg.Lookup("Photo")
	require.NoError(t, err)
	assert.True(t, info.IsAsset())
	assert.Equal(t, asset.PropKey, info.PrimaryKey.Name)
	assert.Equal(t, schema.KindString, info.PrimaryKey.Kind)
}

func TestBlobKey(t *testing.T) {
	assert.Equal(t, "assets/Attachment/cover.png", asset.BlobKey("Attachment", "cover.png"))
}

func TestImportAndOpen(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()

	obj, err := asset.Import(ctx, store, "Attachment", "cover.png", strings.NewReader("hello"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Attachment", obj.ObjectType())
	assert.Equal(t, map[string]any{
		asset.PropKey:         "cover.png",
		asset.PropBlobKey:     "assets/Attachment/cover.png",
		asset.PropSize:        int64(5),
		asset.PropContentType: "image/png",
		asset.PropChecksum:    helloSHA,
		asset.PropDeleted:     false,
	}, obj.Props())

	rc, err := asset.Open(ctx, store, obj)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestImportRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()

	for _, name := range []string{"", "../escape", "/abs"} {
		_, err := asset.Import(ctx, store, "Attachment", name, strings.NewReader("x"), "")
		assert.Error(t, err, "name %q", name)
	}
}

func TestImportTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()

	_, err := asset.Import(ctx, store, "Attachment", "a", strings.NewReader("x"), "")
	require.NoError(t, err)
	_, err = asset.Import(ctx, store, "Attachment", "a", strings.NewReader("y"), "")
	assert.ErrorIs(t, err, blob.ErrExists)
}

func TestImportOmitsEmptyContentType(t *testing.T) {
	obj, err := asset.Import(context.Background(), blob.NewMemory(), "Attachment", "raw", strings.NewReader("x"), "")
	require.NoError(t, err)

	_, ok := obj.Property(asset.PropContentType)
	assert.False(t, ok)
}

func TestOpenMissingPayload(t *testing.T) {
	wrapper := testutil.NewAttachment("gone", 1, "")
	_, err := asset.Open(context.Background(), blob.NewMemory(), wrapper)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestRemoteAsset(t *testing.T) {
	p := asset.NewProvider(nil)
	wrapper := testutil.NewAttachment("cover.png", 5, helloSHA)

	a, err := p.RemoteAsset(wrapper)
	require.NoError(t, err)
	assert.Equal(t, record.Asset{
		Name:        "cover.png",
		BlobKey:     "assets/Attachment/cover.png",
		Size:        5,
		ContentType: "image/png",
		Checksum:    helloSHA,
	}, a)
}

func TestRemoteAssetAcceptsIntSize(t *testing.T) {
	wrapper := model.New("Attachment", map[string]any{
		asset.PropKey:     "a",
		asset.PropBlobKey: "assets/Attachment/a",
		asset.PropSize:    7,
	})
	a, err := asset.NewProvider(nil).RemoteAsset(wrapper)
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.Size)
}

func TestRemoteAssetErrors(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
	}{
		{"missing key", map[string]any{asset.PropBlobKey: "b"}},
		{"missing blob key", map[string]any{asset.PropKey: "a"}},
		{"wrong size type", map[string]any{asset.PropKey: "a", asset.PropBlobKey: "b", asset.PropSize: "big"}},
		{"wrong checksum type", map[string]any{asset.PropKey: "a", asset.PropBlobKey: "b", asset.PropChecksum: 1}},
	}
	p := asset.NewProvider(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.RemoteAsset(model.New("Attachment", tt.props))
			assert.Error(t, err)
		})
	}
}

func TestLocalAssetPopulatesWrapper(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	imported, err := asset.Import(ctx, store, "Attachment", "cover.png", strings.NewReader("hello"), "image/png")
	require.NoError(t, err)

	remote, err := asset.NewProvider(nil).RemoteAsset(imported)
	require.NoError(t, err)

	wrapper := model.New("Attachment", map[string]any{
		asset.PropKey:      "cover.png",
		asset.PropChecksum: "stale",
	})
	require.NoError(t, asset.NewProvider(store).LocalAsset(ctx, remote, wrapper))

	assert.Equal(t, imported.Props(), mergeDeleted(wrapper.Props()))
}

func TestLocalAssetClearsEmptyOptionals(t *testing.T) {
	wrapper := model.New("Attachment", map[string]any{
		asset.PropKey:         "a",
		asset.PropContentType: "text/plain",
	})
	a := record.Asset{Name: "a", BlobKey: "assets/Attachment/a", Size: 1}

	require.NoError(t, asset.NewProvider(nil).LocalAsset(context.Background(), a, wrapper))

	_, ok := wrapper.Property(asset.PropContentType)
	assert.False(t, ok)
	v, _ := wrapper.Property(asset.PropSize)
	assert.Equal(t, int64(1), v)
}

func TestLocalAssetMissingPayloadIsNotAnError(t *testing.T) {
	wrapper := model.New("Attachment", map[string]any{asset.PropKey: "a"})
	a := record.Asset{Name: "a", BlobKey: "assets/Attachment/a", Size: 1, Checksum: "abc"}

	err := asset.NewProvider(blob.NewMemory()).LocalAsset(context.Background(), a, wrapper)
	require.NoError(t, err)

	v, _ := wrapper.Property(asset.PropBlobKey)
	assert.Equal(t, "assets/Attachment/a", v)
}

func mergeDeleted(props map[string]any) map[string]any {
	props[asset.PropDeleted] = false
	return props
}
