package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/nameward/internal/schema"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage data schemas of governed names",
	}
	cmd.AddCommand(newSchemaDefineCmd(false))
	cmd.AddCommand(newSchemaDefineCmd(true))
	cmd.AddCommand(newSchemaRemoveCmd())
	cmd.AddCommand(newSchemaGetCmd())
	cmd.AddCommand(newSchemaListCmd())
	cmd.AddCommand(newSchemaFieldCmd())
	cmd.AddCommand(newSchemaStatsCmd())
	cmd.AddCommand(newSchemaENSCmd())
	return cmd
}

// readDefineRequest decodes a schema file. JSON files parse as YAML.
func readDefineRequest(path string) (schema.DefineRequest, error) {
	var req schema.DefineRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, userError(err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, userError(fmt.Errorf("parse schema file %s: %w", path, err))
	}
	return req, nil
}

func newSchemaDefineCmd(update bool) *cobra.Command {
	use, short := "define <file>", "Define the schema of a new governed name (administrator)"
	if update {
		use, short = "update <file>", "Replace a schema with a new version (administrator)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The file is YAML or JSON:

  name: price-feed
  tier: high
  category: oracle
  version: 1.0.0
  fields:
    - field_name: pair
      data_type: STRING
      required: true
    - field_name: price
      data_type: UINT
      required: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readDefineRequest(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				var def types.SchemaDefinition
				if update {
					def, err = a.engine.UpdateSchema(ctx(cmd), a.caller, req)
				} else {
					def, err = a.engine.DefineSchema(ctx(cmd), a.caller, req)
				}
				if err != nil {
					return classify(err)
				}
				return emit(cmd, def, func(w io.Writer) {
					fmt.Fprintf(w, "%s version %s (%s, %s)\n", def.Name, def.Version, def.Tier, def.Category)
				})
			})
		},
	}
}

func newSchemaRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Deprecate the schema of a name (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.engine.RemoveSchema(ctx(cmd), a.caller, args[0]); err != nil {
					return classify(err)
				}
				return done(cmd, "removed schema "+types.Normalize(args[0]), nil)
			})
		},
	}
}

func newSchemaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show the active schema of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				def, err := a.engine.GetSchema(args[0])
				if err != nil {
					return classify(err)
				}
				return emit(cmd, def, func(w io.Writer) {
					printSchema(w, def)
				})
			})
		},
	}
}

func printSchema(w io.Writer, def types.SchemaDefinition) {
	fmt.Fprintf(w, "Name:      %s\n", def.Name)
	fmt.Fprintf(w, "Version:   %s\n", def.Version)
	fmt.Fprintf(w, "Tier:      %s\n", def.Tier)
	fmt.Fprintf(w, "Category:  %s\n", def.Category)
	if def.Description != "" {
		fmt.Fprintf(w, "About:     %s\n", def.Description)
	}
	fmt.Fprintf(w, "Updated:   %s\n", def.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "ENS:       %t\n", def.ENSEnabled)
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tDESCRIPTION")
	for _, f := range def.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.FieldName, f.DataType, f.Required, dash(f.Description))
	}
	tw.Flush()
	if len(def.TextRecords) > 0 {
		fmt.Fprintln(w)
		keys := make([]string, 0, len(def.TextRecords))
		for k := range def.TextRecords {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s=%s\n", k, def.TextRecords[k])
		}
	}
}

func newSchemaListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				defs := a.engine.ListSchemas()
				if category != "" {
					in := make(map[string]bool)
					for _, n := range a.engine.ListByCategory(category) {
						in[n] = true
					}
					filtered := defs[:0]
					for _, d := range defs {
						if in[d.Name] {
							filtered = append(filtered, d)
						}
					}
					defs = filtered
				}
				return emit(cmd, defs, func(w io.Writer) {
					tw := newTable(w)
					fmt.Fprintln(tw, "NAME\tVERSION\tTIER\tCATEGORY\tFIELDS")
					for _, d := range defs {
						names := make([]string, len(d.Fields))
						for i, f := range d.Fields {
							names[i] = f.FieldName
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Version, d.Tier, d.Category, strings.Join(names, ","))
					}
					tw.Flush()
				})
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only schemas in this category")
	return cmd
}

func newSchemaFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "field <name> <field>",
		Short: "Show one field of a schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				f, err := a.engine.FieldByName(args[0], args[1])
				if err != nil {
					return classify(err)
				}
				return emit(cmd, f, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s required=%t\n", f.FieldName, f.DataType, f.Required)
					if f.ValidationRule != "" {
						fmt.Fprintf(w, "rule: %s\n", f.ValidationRule)
					}
					if f.DefaultValue != "" {
						fmt.Fprintf(w, "default: %s\n", f.DefaultValue)
					}
				})
			})
		},
	}
}

func newSchemaStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count active schemas by tier and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				st := a.engine.Statistics()
				return emit(cmd, st, func(w io.Writer) {
					fmt.Fprintf(w, "total: %d\n", st.Total)
					for i, n := range st.ByTier() {
						fmt.Fprintf(w, "  %-9s %d\n", types.Priority(i+1), n)
					}
					cats := make([]string, 0, len(st.ByCategory))
					for c := range st.ByCategory {
						cats = append(cats, c)
					}
					sort.Strings(cats)
					for _, c := range cats {
						fmt.Fprintf(w, "  %s: %d\n", c, st.ByCategory[c])
					}
				})
			})
		},
	}
}

func newSchemaENSCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ens <name> on|off",
		Short:     "Toggle name-service publication of a schema (administrator)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[1] {
			case "on":
				enabled = true
			case "off":
			default:
				return userError(fmt.Errorf("want on or off, got %q", args[1]))
			}
			return withApp(cmd, func(a *app) error {
				if err := a.engine.SetENSEnabled(ctx(cmd), a.caller, args[0], enabled); err != nil {
					return classify(err)
				}
				return done(cmd, fmt.Sprintf("ens %s for %s", args[1], types.Normalize(args[0])), nil)
			})
		},
	}
}
