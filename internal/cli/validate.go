package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

var errInvalidNames = errors.New("one or more names are not available")

func newValidateCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "validate <name>...",
		Short: "Check whether subdomain labels may be registered",
		Long: `Validate runs the format checks, the reserved-word lookups and, with
--parent, the existence check for every name. Every failure is reported.
The command exits 1 if any name is not available.

Example:
  nameward validate my-dao-1 admin -bad-
  nameward validate treasury --parent dao.eth --known treasury.dao.eth`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				results := a.engine.ValidateBatch(ctx(cmd), args, parent)
				err := emit(cmd, results, func(w io.Writer) {
					printValidation(w, results)
				})
				if err != nil {
					return err
				}
				for _, res := range results {
					if !res.IsValid {
						return userError(errInvalidNames)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "parent domain for the existence check")
	return cmd
}

func printValidation(w io.Writer, results []types.ValidationResult) {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tVALID\tRESERVED\tPRIORITY\tCATEGORY\tERRORS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%t\t%t\t%s\t%s\t%s\n",
			r.Name, r.IsValid, r.IsReserved, r.Priority, dash(r.Category), dash(strings.Join(r.Errors, "; ")))
	}
	tw.Flush()
	for _, r := range results {
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "warning: %s: %s\n", r.Name, warn)
		}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
