package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/identity"
)

// DeleteResult describes a soft-deleted object.
type DeleteResult struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("%s %s marked deleted", r.Type, r.Key)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <type> <key>",
		Short: "Soft-delete a stored object",
		Long: `Set the soft-delete flag of a stored object. The row is kept so that the
next encode --since run emits a record carrying the flag.

Example:
  recmap delete Note abc123`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runDelete(ctx context.Context, opts *RootOptions, typeName, rawKey string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	ws, err := openWorkspace(opts, true)
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}
	defer ws.Close()

	info, err := ws.reg.Lookup(typeName)
	if err != nil {
		return formatter.Fail("unknown type", err)
	}
	key, err := identity.ParseKey(info, rawKey)
	if err != nil {
		return formatter.Fail("invalid key", err)
	}
	if err := ws.store.SoftDelete(ctx, info.Name(), key); err != nil {
		return formatter.Fail("delete failed", err)
	}
	return formatter.Success(DeleteResult{Type: info.Name(), Key: rawKey})
}
