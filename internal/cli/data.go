package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/internal/records"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Submit and read attached data records",
	}
	cmd.AddCommand(newDataSubmitCmd())
	cmd.AddCommand(newDataGetCmd())
	cmd.AddCommand(newDataListCmd())
	cmd.AddCommand(newDataLatestCmd())
	cmd.AddCommand(newDataInvalidateCmd())
	return cmd
}

// buildSubmission encodes key=value pairs against the field types of the
// active schema of name. Unknown fields pass through as UTF-8 so that the
// engine reports them.
func buildSubmission(a *app, name, version string, pairs []string) (records.SubmitRequest, error) {
	req := records.SubmitRequest{Name: name, SchemaVersion: version}
	def, err := a.engine.GetSchema(name)
	if err != nil {
		return req, classify(err)
	}
	if req.SchemaVersion == "" {
		req.SchemaVersion = def.Version
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return req, userError(fmt.Errorf("field %q: want key=value", p))
		}
		raw := []byte(value)
		if f, ok := def.Field(key); ok {
			raw, err = records.EncodeValue(f.DataType, value)
			if err != nil {
				return req, userError(fmt.Errorf("field %s: %w", key, err))
			}
		}
		req.FieldNames = append(req.FieldNames, key)
		req.FieldValues = append(req.FieldValues, raw)
	}
	return req, nil
}

func newDataSubmitCmd() *cobra.Command {
	var (
		version string
		fields  []string
	)
	cmd := &cobra.Command{
		Use:   "submit <name>",
		Short: "Submit a data record (data provider)",
		Long: `Submit stores one record against the active schema of a name. Values
are given as text and encoded by the declared field type.

Example:
  nameward data submit price-feed --field pair=ETH/USD --field price=3150
  nameward data submit price-feed --version 1.0.0 --field sources='["a","b"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				req, err := buildSubmission(a, args[0], version, fields)
				if err != nil {
					return err
				}
				rec, err := a.engine.Submit(ctx(cmd), a.caller, req)
				if err != nil {
					return classify(err)
				}
				return emit(cmd, rec, func(w io.Writer) {
					fmt.Fprintln(w, rec.ContentHash)
				})
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "schema version (default: active version)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field value as key=value (repeatable)")
	return cmd
}

func parseHash(s string) (types.Hash, error) {
	h, err := types.ParseHash(s)
	if err != nil {
		return h, userError(err)
	}
	return h, nil
}

// recordView is a record with its values rendered by field type.
type recordView struct {
	types.AttachedDataRecord
	Values map[string]string `json:"values"`
}

func viewRecord(a *app, rec types.AttachedDataRecord) recordView {
	v := recordView{AttachedDataRecord: rec, Values: make(map[string]string, len(rec.FieldNames))}
	def, err := a.engine.GetSchema(rec.Name)
	for i, name := range rec.FieldNames {
		dt := types.DataTypeString
		if err == nil {
			if f, ok := def.Field(name); ok {
				dt = f.DataType
			}
		}
		v.Values[name] = records.FormatValue(dt, rec.FieldValues[i])
	}
	return v
}

func printRecord(w io.Writer, v recordView) {
	fmt.Fprintf(w, "Hash:      %s\n", v.ContentHash)
	fmt.Fprintf(w, "Name:      %s\n", v.Name)
	fmt.Fprintf(w, "Version:   %s\n", v.SchemaVersion)
	fmt.Fprintf(w, "Submitted: %s by %s\n", v.Timestamp.Format("2006-01-02 15:04:05.000"), v.SubmittedBy)
	fmt.Fprintf(w, "Valid:     %t\n", v.Valid)
	for _, name := range v.FieldNames {
		fmt.Fprintf(w, "  %s = %s\n", name, v.Values[name])
	}
}

func newDataGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name> <hash>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHash(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				rec, err := a.engine.GetRecord(args[0], h)
				if err != nil {
					return classify(err)
				}
				v := viewRecord(a, rec)
				return emit(cmd, v, func(w io.Writer) { printRecord(w, v) })
			})
		},
	}
}

func newDataLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest <name>",
		Short: "Show the most recent record of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				rec, err := a.engine.LatestRecord(args[0])
				if err != nil {
					return classify(err)
				}
				v := viewRecord(a, rec)
				return emit(cmd, v, func(w io.Writer) { printRecord(w, v) })
			})
		},
	}
}

func newDataListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <name>",
		Short: "List record hashes of a name, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				hashes, err := a.engine.ListHashes(args[0])
				if err != nil {
					return classify(err)
				}
				return emit(cmd, hashes, func(w io.Writer) {
					for _, h := range hashes {
						fmt.Fprintln(w, h)
					}
				})
			})
		},
	}
}

func newDataInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <name> <hash>",
		Short: "Mark a record invalid (moderator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHash(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				if err := a.engine.Invalidate(ctx(cmd), a.caller, args[0], h); err != nil {
					return classify(err)
				}
				return done(cmd, "invalidated "+h.String(), nil)
			})
		},
	}
}
