package cli

import (
	"fmt"

	"github.com/harun/oracle/pkg/session"
	"github.com/spf13/cobra"
)

// listOptions select sessions by age.
type listOptions struct {
	hours float64
	limit int
	all   bool
}

func (o *listOptions) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.hours, "hours", session.DefaultHours, "look back this many hours")
	cmd.Flags().IntVar(&o.limit, "limit", session.DefaultListLimit, "maximum sessions to show (max 1000)")
	cmd.Flags().BoolVar(&o.all, "all", false, "include all stored sessions regardless of age")
}

// usesDefaults reports whether no filter flag was given.
func (o *listOptions) usesDefaults(cmd *cobra.Command) bool {
	return !cmd.Flags().Changed("hours") && !cmd.Flags().Changed("limit") && !cmd.Flags().Changed("all")
}

func newStatusCmd(g *globalOptions) *cobra.Command {
	list := &listOptions{}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List recent sessions",
		Long:  `List recent sessions (24h window by default), newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd, g.app, list, list.usesDefaults(cmd))
		},
	}
	list.bind(statusCmd)

	statusCmd.AddCommand(newStatusClearCmd(g))
	return statusCmd
}

func newStatusClearCmd(g *globalOptions) *cobra.Command {
	var (
		hours float64
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored sessions",
		Long:  `Delete stored sessions older than the provided window (24h default).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.app.store.DeleteOlderThan(session.Range{Hours: hours, IncludeAll: all})
			if err != nil {
				return err
			}
			scope := fmt.Sprintf("sessions older than %sh", formatHours(hours))
			if all {
				scope = "all stored sessions"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s (%s).\n", res.Deleted, plural(res.Deleted, "session", "sessions"), scope)
			return nil
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", session.DefaultHours, "delete sessions older than this many hours")
	cmd.Flags().BoolVar(&all, "all", false, "delete all stored sessions")
	return cmd
}

func showStatus(cmd *cobra.Command, a *app, o *listOptions, showExamples bool) error {
	out := cmd.OutOrStdout()

	records, err := a.store.List()
	if err != nil {
		return err
	}
	res := a.store.FilterByRange(records, session.Range{Hours: o.hours, IncludeAll: o.all, Limit: o.limit})

	if len(res.Entries) == 0 {
		fmt.Fprintln(out, "No sessions found for the requested range.")
		if showExamples {
			writeStatusExamples(out)
		}
		return nil
	}

	fmt.Fprintln(out, "Recent Sessions")
	for _, rec := range res.Entries {
		fmt.Fprintln(out, formatStatusLine(rec))
	}
	if res.Truncated {
		fmt.Fprintf(out, "Showing %d of %d sessions from the requested range. Run \"oracle status clear\" or delete entries in %s to free space, or rerun with --limit/--all.\n",
			len(res.Entries), res.Total, a.store.Root())
	}
	if showExamples {
		writeStatusExamples(out)
	}
	return nil
}
