package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Read and write schema text records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <key> <value>",
		Short: "Set a text record (administrator)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.engine.SetTextRecord(ctx(cmd), a.caller, args[0], args[1], args[2]); err != nil {
					return classify(err)
				}
				return done(cmd, fmt.Sprintf("%s: %s set", types.Normalize(args[0]), args[1]), nil)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <name> [key]",
		Short: "Show one or all text records of a schema",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if len(args) == 2 {
					v, err := a.engine.GetTextRecord(args[0], args[1])
					if err != nil {
						return classify(err)
					}
					return emit(cmd, map[string]string{args[1]: v}, func(w io.Writer) {
						fmt.Fprintln(w, v)
					})
				}
				recs, err := a.engine.TextRecords(args[0])
				if err != nil {
					return classify(err)
				}
				return emit(cmd, recs, func(w io.Writer) {
					keys := make([]string, 0, len(recs))
					for k := range recs {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(w, "%s=%s\n", k, recs[k])
					}
				})
			})
		},
	})
	return cmd
}
