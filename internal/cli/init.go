package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize nameward storage",
		Long: "Create the configuration and data directories and write the initial\n" +
			"registry state: the owner, the built-in reserved words and no schemas.\n" +
			"Running init on an initialized data directory changes nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, owner)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.SaveSnapshot(ctx(cmd)); err != nil {
				return sysError(err)
			}
			return done(cmd, fmt.Sprintf("nameward initialized in %s (owner %s)", a.dataDir, a.engine.Owner()),
				map[string]any{"data_dir": a.dataDir, "owner": a.engine.Owner()})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identity for a new data directory (default: config owner, then --as)")
	return cmd
}
