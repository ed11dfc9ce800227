package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/internal/audit"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and compact the event journal",
	}
	cmd.AddCommand(newAuditListCmd())
	cmd.AddCommand(newAuditCompactCmd())
	return cmd
}

// journalPath returns the audit journal of the resolved data directory.
func journalPath() (string, error) {
	_, dataDir, err := resolveDirs()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, audit.FileName), nil
}

func newAuditListCmd() *cobra.Command {
	var (
		name  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled events, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := journalPath()
			if err != nil {
				return err
			}
			events, err := audit.Read(path)
			if err != nil {
				return sysError(fmt.Errorf("read journal: %w", err))
			}
			if name != "" {
				name = types.Normalize(name)
			}
			events = audit.Filter(events, name, limit)
			if events == nil {
				events = []types.Event{}
			}
			return emit(cmd, events, func(w io.Writer) {
				tw := newTable(w)
				fmt.Fprintln(tw, "TIME\tTYPE\tACTOR\tNAME\tDETAIL")
				for _, evt := range events {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						evt.Timestamp.Format(time.RFC3339), evt.Type, evt.Actor, dash(evt.Name), eventDetail(evt))
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only events about this name")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the most recent N events")
	return cmd
}

// eventDetail summarizes the type-specific fields of evt.
func eventDetail(evt types.Event) string {
	switch {
	case evt.Role != "":
		return evt.Role + " " + evt.Subject
	case evt.Key != "":
		return "key=" + evt.Key
	case evt.ContentHash != "":
		return evt.ContentHash
	case evt.OldVersion != "":
		return evt.OldVersion + " -> " + evt.Version
	case evt.Version != "":
		return evt.Version
	}
	return "-"
}

func newAuditCompactCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Trim the journal to its most recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return userError(fmt.Errorf("--keep must not be negative"))
			}
			path, err := journalPath()
			if err != nil {
				return err
			}
			n, err := audit.Compact(path, keep)
			if err != nil {
				return sysError(fmt.Errorf("compact journal: %w", err))
			}
			return done(cmd, fmt.Sprintf("journal compacted to %d events", n), map[string]any{"kept": n})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 1000, "number of events to keep")
	return cmd
}
