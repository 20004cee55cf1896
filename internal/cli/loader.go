package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/config"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/schema"
	"github.com/roach88/recmap/internal/store"
)

// Error codes for CLI failures that carry no typed code of their own.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeDescriptor = "E010" // Descriptor file could not be parsed
	ErrCodeInput      = "E020" // Input records or objects could not be read
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// workspace bundles what data commands need: settings, the frozen registry
// and, when requested, the object store.
type workspace struct {
	cfg   *config.Config
	reg   *schema.Registry
	ids   *identity.Resolver
	store *store.Store
}

// newFormatter creates the formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadRegistry loads descriptors from path and builds a frozen registry owned
// by owner.
func loadRegistry(path, owner string) (*schema.Registry, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no descriptors: pass --schemas or set schemas in the config file")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("descriptor path not found: %s", path))
	}
	schemas, err := schema.LoadPath(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load descriptors", err)
	}
	reg, err := schema.Build(schemas, schema.WithOwner(owner))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid descriptors", err)
	}
	return reg, nil
}

// openWorkspace loads settings and descriptors. The store is opened only when
// withStore is set.
func openWorkspace(opts *RootOptions, withStore bool) (*workspace, error) {
	cfg, err := opts.Settings()
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(cfg.Schemas, cfg.Owner)
	if err != nil {
		return nil, err
	}
	ws := &workspace{
		cfg: cfg,
		reg: reg,
		ids: identity.New(reg, identity.WithValidation(cfg.ValidationMode())),
	}
	if withStore {
		if cfg.Database != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
			}
		}
		st, err := store.Open(cfg.Database, reg)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open database %s", cfg.Database), err)
		}
		ws.store = st
	}
	return ws, nil
}

// openBlobs opens the configured blob store.
func (ws *workspace) openBlobs(ctx context.Context) (blob.Store, error) {
	bs, err := blob.Open(ctx, ws.cfg.BlobConfig())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open blob store", err)
	}
	return bs, nil
}

// Close releases the store.
func (ws *workspace) Close() error {
	if ws.store == nil {
		return nil
	}
	return ws.store.Close()
}
