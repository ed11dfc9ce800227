package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/internal/reserved"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newReservedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserved",
		Short: "Manage reserved words, prefixes and suffixes",
	}
	cmd.AddCommand(newReservedListCmd())
	cmd.AddCommand(newReservedCheckCmd())
	cmd.AddCommand(newReservedAddCmd())
	cmd.AddCommand(newReservedRemoveCmd())
	cmd.AddCommand(newReservedImportCmd())
	return cmd
}

func parseKind(s string) (types.MatchKind, error) {
	k := types.MatchKind(s)
	if !k.Valid() {
		return "", userError(fmt.Errorf("%w: %q (want exact, prefix or suffix)", types.ErrInvalidMatchKind, s))
	}
	return k, nil
}

func newReservedListCmd() *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reserved entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				var entries []types.ReservedWord
				for _, s := range kinds {
					k, err := parseKind(s)
					if err != nil {
						return err
					}
					entries = append(entries, a.engine.ReservedEntries(k)...)
				}
				sort.SliceStable(entries, func(i, j int) bool {
					if entries[i].Tier != entries[j].Tier {
						return entries[i].Tier < entries[j].Tier
					}
					return entries[i].Word < entries[j].Word
				})
				return emit(cmd, entries, func(w io.Writer) {
					tw := newTable(w)
					fmt.Fprintln(tw, "WORD\tKIND\tTIER\tCATEGORY")
					for _, e := range entries {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Word, e.Kind, e.Tier, dash(e.Category))
					}
					tw.Flush()
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", []string{"exact", "prefix", "suffix"}, "tables to list")
	return cmd
}

func newReservedCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <word>",
		Short: "Show whether a word is reserved exactly and at which tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				p, ok := a.engine.PriorityOf(args[0])
				out := map[string]any{"word": types.Normalize(args[0]), "reserved": ok}
				if ok {
					out["tier"] = p
				}
				return emit(cmd, out, func(w io.Writer) {
					if ok {
						fmt.Fprintf(w, "%s is reserved (%s)\n", types.Normalize(args[0]), p)
					} else {
						fmt.Fprintf(w, "%s is not reserved\n", types.Normalize(args[0]))
					}
				})
			})
		},
	}
}

func newReservedAddCmd() *cobra.Command {
	var (
		tier, kind, category string
		roles, restrictions  []string
	)
	cmd := &cobra.Command{
		Use:   "add <word>",
		Short: "Reserve a word, prefix or suffix (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParsePriority(tier)
			if err != nil {
				return userError(err)
			}
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				entry := types.ReservedWord{
					Word:         args[0],
					Kind:         k,
					Tier:         p,
					Category:     category,
					AllowedRoles: roles,
					Restrictions: restrictions,
				}
				if err := a.engine.AddReserved(ctx(cmd), a.caller, entry); err != nil {
					return classify(err)
				}
				return done(cmd, fmt.Sprintf("reserved %s %q at %s", k, types.Normalize(args[0]), p), nil)
			})
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "medium", "tier: critical, high, medium, low or 1-4")
	cmd.Flags().StringVar(&kind, "kind", "exact", "table: exact, prefix or suffix")
	cmd.Flags().StringVar(&category, "category", "", "category label")
	cmd.Flags().StringSliceVar(&roles, "allowed-roles", nil, "roles that may still register the word")
	cmd.Flags().StringSliceVar(&restrictions, "restrictions", nil, "restriction labels")
	return cmd
}

func newReservedRemoveCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "remove <word>",
		Short: "Remove a reserved entry (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				if err := a.engine.RemoveReserved(ctx(cmd), a.caller, args[0], k); err != nil {
					return classify(err)
				}
				return done(cmd, fmt.Sprintf("removed %s %q", k, types.Normalize(args[0])), nil)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "exact", "table: exact, prefix or suffix")
	return cmd
}

func newReservedImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the entries of a reserved-word YAML file (administrator)",
		Long: `Import reads a YAML file of the form

  entries:
    - word: uniswap
      kind: exact
      tier: high
      category: brand

and adds every entry not already reserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return userError(err)
			}
			entries, err := reserved.ParseFile(data)
			if err != nil {
				return userError(err)
			}
			return withApp(cmd, func(a *app) error {
				added := 0
				for _, e := range entries {
					err := a.engine.AddReserved(ctx(cmd), a.caller, e)
					if errors.Is(err, types.ErrReservedDuplicate) {
						continue
					}
					if err != nil {
						return classify(err)
					}
					added++
				}
				return done(cmd, fmt.Sprintf("imported %d of %d entries", added, len(entries)),
					map[string]any{"added": added, "total": len(entries)})
			})
		},
	}
}
