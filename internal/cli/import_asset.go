package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/asset"
)

// ImportAssetOptions holds flags for the import-asset command.
type ImportAssetOptions struct {
	*RootOptions
	Name        string // wrapper key; defaults to the file's base name
	ContentType string // defaults to the type registered for the extension
}

// ImportAssetResult describes an imported asset wrapper.
type ImportAssetResult struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	BlobKey     string `json:"blobKey"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
}

func (r ImportAssetResult) String() string {
	return fmt.Sprintf("%s %s -> %s (%d bytes)", r.Type, r.Name, r.BlobKey, r.Size)
}

// NewImportAssetCommand creates the import-asset command.
func NewImportAssetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportAssetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-asset <type> <file>",
		Short: "Store a file as an asset wrapper",
		Long: `Copy a file into the configured blob store and save an asset wrapper
object for it, so that fields referencing the wrapper encode as assets.

Examples:
  recmap import-asset Attachment ./photo.jpg
  recmap import-asset Attachment ./photo.jpg --name cover-1 --content-type image/jpeg`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportAsset(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "wrapper key (default: file name)")
	cmd.Flags().StringVar(&opts.ContentType, "content-type", "", "payload content type (default: from extension)")

	return cmd
}

func runImportAsset(ctx context.Context, opts *ImportAssetOptions, typeName, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	ws, err := openWorkspace(opts.RootOptions, true)
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}
	defer ws.Close()

	info, err := ws.reg.Lookup(typeName)
	if err != nil {
		return formatter.Fail("import failed", err)
	}
	if !info.IsAsset() {
		return formatter.Fail("import failed",
			NewExitError(ExitCommandError, fmt.Sprintf("%s is not an asset type", typeName)))
	}

	f, err := os.Open(path)
	if err != nil {
		formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open asset file", err)
	}
	defer f.Close()

	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	blobs, err := ws.openBlobs(ctx)
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}
	wrapper, err := asset.Import(ctx, blobs, info.Name(), name, f, contentType)
	if err != nil {
		return formatter.Fail("import failed", err)
	}
	if err := ws.store.Save(ctx, wrapper); err != nil {
		return formatter.Fail("failed to save wrapper", err)
	}

	a, err := asset.NewProvider(blobs).RemoteAsset(wrapper)
	if err != nil {
		return formatter.Fail("import failed", err)
	}
	formatter.VerboseLog("Stored %s in %s blob store", a.BlobKey, blobs.Driver())
	return formatter.Success(ImportAssetResult{
		Type:        info.Name(),
		Name:        a.Name,
		BlobKey:     a.BlobKey,
		Size:        a.Size,
		ContentType: a.ContentType,
		Checksum:    a.Checksum,
	})
}
