package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nameward/internal/engine"
	"github.com/mesh-intelligence/nameward/internal/scheduler"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newAutoUpdateCmd() *cobra.Command {
	var height uint64
	cmd := &cobra.Command{
		Use:   "autoupdate",
		Short: "Configure and fire attached-data refresh schedules",
	}
	cmd.PersistentFlags().Uint64Var(&height, "height", 0, "current block height for block-based schedules")

	// heightOpt feeds --height to the scheduler.
	heightOpt := func() engine.Option {
		h := &scheduler.ManualHeight{}
		h.Set(height)
		return engine.WithHeightSource(h)
	}

	cmd.AddCommand(newAutoUpdateConfigureCmd(heightOpt))
	cmd.AddCommand(newAutoUpdateStatusCmd(heightOpt))
	cmd.AddCommand(newAutoUpdateTriggerCmd(heightOpt))
	cmd.AddCommand(newAutoUpdateReportCmd())
	cmd.AddCommand(newAutoUpdateDueCmd(heightOpt))
	return cmd
}

func newAutoUpdateConfigureCmd(heightOpt func() engine.Option) *cobra.Command {
	var (
		disable       bool
		trigger       string
		frequency     string
		interval      time.Duration
		fields        []string
		conditions    []string
		target        string
		requireChange bool
		maxAge        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "configure <name>",
		Short: "Set the refresh schedule of a schema (administrator)",
		Long: `Configure enables (or with --disable, disables) refreshing of a schema's
attached data.

Triggers: MANUAL, TIME_BASED, EVENT_BASED, BLOCK_BASED, CONDITIONAL, EXTERNAL_CALL
Frequencies: NEVER, HOURLY, DAILY, WEEKLY, MONTHLY, CUSTOM (with --interval)

Example:
  nameward autoupdate configure price-feed --trigger TIME_BASED --frequency DAILY
  nameward autoupdate configure price-feed --trigger EVENT_BASED --conditions price-moved`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := types.ParseTrigger(trigger)
			if err != nil {
				return userError(err)
			}
			f, err := types.ParseFrequency(frequency)
			if err != nil {
				return userError(err)
			}
			req := scheduler.ConfigureRequest{
				Enabled:               !disable,
				Trigger:               t,
				Frequency:             f,
				CustomIntervalSeconds: int64(interval / time.Second),
				UpdateFields:          fields,
				TriggerConditions:     conditions,
				ExternalTarget:        target,
				RequireDataChange:     requireChange,
				MaxUpdateAge:          maxAge,
			}
			return withApp(cmd, func(a *app) error {
				if err := a.engine.ConfigureAutoUpdate(ctx(cmd), a.caller, args[0], req); err != nil {
					return classify(err)
				}
				cfg, err := a.engine.AutoUpdate(args[0])
				if err != nil {
					return classify(err)
				}
				return emit(cmd, cfg, func(w io.Writer) { printAutoUpdate(w, args[0], cfg) })
			}, heightOpt())
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&disable, "disable", false, "disable refreshing")
	fl.StringVar(&trigger, "trigger", string(types.TriggerManual), "trigger kind")
	fl.StringVar(&frequency, "frequency", string(types.FrequencyNever), "refresh frequency")
	fl.DurationVar(&interval, "interval", 0, "interval for CUSTOM frequency")
	fl.StringSliceVar(&fields, "fields", nil, "fields the refresh updates")
	fl.StringSliceVar(&conditions, "conditions", nil, "conditions evaluated by the external collaborator")
	fl.StringVar(&target, "target", "", "external call target")
	fl.BoolVar(&requireChange, "require-change", false, "refresh only when data changed")
	fl.DurationVar(&maxAge, "max-age", 0, "refresh whenever the last refresh is older than this")
	return cmd
}

func printAutoUpdate(w io.Writer, name string, cfg types.AutoUpdateConfig) {
	fmt.Fprintf(w, "Name:      %s\n", types.Normalize(name))
	fmt.Fprintf(w, "Enabled:   %t\n", cfg.Enabled)
	fmt.Fprintf(w, "Trigger:   %s\n", cfg.Trigger)
	fmt.Fprintf(w, "Frequency: %s\n", cfg.Frequency)
	fmt.Fprintf(w, "Last:      %s\n", formatWhen(cfg.LastUpdateTime))
	fmt.Fprintf(w, "Next:      %s\n", formatWhen(cfg.NextUpdateTime))
	if !cfg.ReportedAt.IsZero() {
		fmt.Fprintf(w, "Reported:  %s\n", formatWhen(cfg.ReportedAt))
	}
	if cfg.MaxUpdateAge > 0 {
		fmt.Fprintf(w, "Max age:   %s\n", cfg.MaxUpdateAge)
	}
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func newAutoUpdateStatusCmd(heightOpt func() engine.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show a schema's refresh schedule and whether it is due",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				cfg, err := a.engine.AutoUpdate(args[0])
				if err != nil {
					return classify(err)
				}
				due, err := a.engine.NeedsUpdate(args[0])
				if err != nil {
					return classify(err)
				}
				out := struct {
					types.AutoUpdateConfig
					Due bool `json:"due"`
				}{cfg, due}
				return emit(cmd, out, func(w io.Writer) {
					printAutoUpdate(w, args[0], cfg)
					fmt.Fprintf(w, "Due:       %t\n", due)
				})
			}, heightOpt())
		},
	}
}

func newAutoUpdateTriggerCmd(heightOpt func() engine.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <name>",
		Short: "Run the refresh of a due schema (data provider)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.engine.Trigger(ctx(cmd), a.caller, args[0]); err != nil {
					return classify(err)
				}
				return done(cmd, "refreshed "+types.Normalize(args[0]), nil)
			}, heightOpt())
		},
	}
}

func newAutoUpdateReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <name>",
		Short: "Report that an external trigger fired (data provider)",
		Long: `Report marks an EVENT_BASED, CONDITIONAL, EXTERNAL_CALL or MANUAL schedule
as due. The next trigger clears the report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.engine.ReportTrigger(ctx(cmd), a.caller, args[0]); err != nil {
					return classify(err)
				}
				return done(cmd, "reported "+types.Normalize(args[0]), nil)
			})
		},
	}
}

func newAutoUpdateDueCmd(heightOpt func() engine.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List schemas due for refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				names := a.engine.DueSchemas()
				if names == nil {
					names = []string{}
				}
				return emit(cmd, names, func(w io.Writer) {
					for _, n := range names {
						fmt.Fprintln(w, n)
					}
				})
			}, heightOpt())
		},
	}
}
