package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/identity"
)

// IdentifyResult is the record identifier of one primary key.
type IdentifyResult struct {
	Type       string `json:"type"`
	RecordType string `json:"recordType"`
	RecordName string `json:"recordName"`
	ZoneName   string `json:"zoneName"`
	OwnerName  string `json:"ownerName"`
}

func (r IdentifyResult) String() string {
	return fmt.Sprintf("%s %s -> %s/%s/%s", r.Type, r.RecordName, r.OwnerName, r.ZoneName, r.RecordName)
}

// NewIdentifyCommand creates the identify command.
func NewIdentifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <type> <key>",
		Short: "Print the record identifier of a primary key",
		Long: `Print the record identifier (record name, zone and owner) for a primary key.

Integer keys are given in base 10. In strict validation mode string keys that
are empty, longer than 255 bytes, start with an underscore or contain bytes
outside printable ASCII are rejected.

Example:
  recmap identify Note abc123 --schemas ./descriptors`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runIdentify(opts *RootOptions, typeName, rawKey string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := openWorkspace(opts, false)
	if err != nil {
		return formatter.Fail("failed to load descriptors", err)
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
	id, err := ws.ids.ResolveKey(info, key)
	if err != nil {
		return formatter.Fail("invalid key", err)
	}

	return formatter.Success(IdentifyResult{
		Type:       info.Name(),
		RecordType: info.RecordType,
		RecordName: id.RecordName,
		ZoneName:   id.Zone.ZoneName,
		OwnerName:  id.Zone.OwnerName,
	})
}
