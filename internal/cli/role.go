package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// grantableRoles are the roles listed by "role list", most privileged first.
var grantableRoles = []types.Role{
	types.RoleAdministrator,
	types.RoleModerator,
	types.RoleDataProvider,
}

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage role membership and ownership",
	}
	cmd.AddCommand(newRoleGrantCmd(true))
	cmd.AddCommand(newRoleGrantCmd(false))
	cmd.AddCommand(newRoleListCmd())
	cmd.AddCommand(newRoleTransferCmd())
	cmd.AddCommand(newRoleWhoamiCmd())
	return cmd
}

func newRoleGrantCmd(grant bool) *cobra.Command {
	use, short, msg := "add <identity> <role>", "Grant a role to an identity", "granted %s to %s"
	if !grant {
		use, short, msg = "remove <identity> <role>", "Revoke a role from an identity", "revoked %s from %s"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Roles: administrator (admin), moderator, data-provider (provider).
The owner manages administrators; administrators manage the rest.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := types.ParseRole(args[1])
			if err != nil {
				return userError(err)
			}
			if role == types.RoleNone || role == types.RoleOwner {
				return userError(fmt.Errorf("role %s cannot be granted or revoked; use \"role transfer\" for ownership", role))
			}
			return withApp(cmd, func(a *app) error {
				op := a.engine.AddRole
				if !grant {
					op = a.engine.RemoveRole
				}
				if err := op(ctx(cmd), a.caller, args[0], role); err != nil {
					return classify(err)
				}
				return done(cmd, fmt.Sprintf(msg, role, args[0]), map[string]any{
					"subject": args[0],
					"role":    role.String(),
				})
			})
		},
	}
}

func newRoleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the owner and role members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				members := map[string][]string{
					types.RoleOwner.String(): {a.engine.Owner()},
				}
				for _, r := range grantableRoles {
					members[r.String()] = a.engine.Members(r)
				}
				return emit(cmd, members, func(w io.Writer) {
					tw := newTable(w)
					fmt.Fprintln(tw, "ROLE\tIDENTITY")
					fmt.Fprintf(tw, "%s\t%s\n", types.RoleOwner, a.engine.Owner())
					for _, r := range grantableRoles {
						for _, id := range members[r.String()] {
							fmt.Fprintf(tw, "%s\t%s\n", r, id)
						}
					}
					tw.Flush()
				})
			})
		},
	}
}

func newRoleTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <identity>",
		Short: "Hand ownership to another identity (owner)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.engine.TransferOwnership(ctx(cmd), a.caller, args[0]); err != nil {
					return classify(err)
				}
				return done(cmd, "ownership transferred to "+args[0], map[string]any{"owner": args[0]})
			})
		},
	}
}

func newRoleWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting identity and its role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				role := a.engine.RoleOf(a.caller)
				out := map[string]string{"identity": a.caller, "role": role.String()}
				return emit(cmd, out, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n", a.caller, role)
				})
			})
		},
	}
}
