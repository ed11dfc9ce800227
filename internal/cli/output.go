package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// printJSON writes v as indented JSON to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// newTable returns a tab-aligned writer; the caller must Flush it.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// emit prints v as JSON in --json mode and calls human otherwise.
func emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	if flags.jsonMode {
		return printJSON(cmd, v)
	}
	human(cmd.OutOrStdout())
	return nil
}

// done prints a confirmation line unless --json is set, in which case it
// prints {"ok": true} plus details.
func done(cmd *cobra.Command, msg string, details map[string]any) error {
	if flags.jsonMode {
		out := map[string]any{"ok": true}
		for k, v := range details {
			out[k] = v
		}
		return printJSON(cmd, out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
