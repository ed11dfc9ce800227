// Package cli implements the nameward command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	as        string
	jsonMode  bool
	debug     bool
	known     []string
}

var flags rootFlags

// NewRootCmd creates the top-level "nameward" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nameward",
		Short: "Reserved-namespace governance for subdomain registries",
		Long: "nameward validates candidate subdomain labels against reserved words,\n" +
			"keeps typed data schemas for governed names, stores attached data and\n" +
			"schedules its refresh.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .nameward-db)")
	pf.StringVar(&flags.as, "as", "", "identity to act as")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&flags.debug, "debug", false, "debug logging on stderr")
	pf.StringSliceVar(&flags.known, "known", nil, "names treated as already registered, as fqdn or fqdn=owner")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newReservedCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newTextCmd())
	root.AddCommand(newDataCmd())
	root.AddCommand(newAutoUpdateCmd())
	root.AddCommand(newRoleCmd())
	root.AddCommand(newAuditCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

// exitError carries the exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps err to an exit code. Errors without a code come from cobra
// argument parsing and count as user errors.
func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserError
}
