package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/oracle/pkg/detach"
	"github.com/harun/oracle/pkg/poller"
	"github.com/harun/oracle/pkg/session"
	"github.com/spf13/cobra"
)

func newSessionCmd(g *globalOptions) *cobra.Command {
	list := &listOptions{}
	cmd := &cobra.Command{
		Use:   "session [id]",
		Short: "Attach to a stored session",
		Long:  `Attach to a stored session and stream its transcript, or list recent sessions when no ID is provided.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return showStatus(cmd, g.app, list, list.usesDefaults(cmd))
			}
			_, err := attach(cmd, g.app, args[0])
			return err
		},
	}
	list.bind(cmd)
	return cmd
}

// attach prints the session header, streams the transcript until the
// session settles and prints the outcome. It returns the settled record, or
// nil when the wait was interrupted or the session vanished.
func attach(cmd *cobra.Command, a *app, id string) (*session.Record, error) {
	rec, err := a.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("no session found with ID %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s\n", id)
	fmt.Fprintf(out, "Created: %s\n", rec.CreatedAt.UTC().Format(isoLayout))
	fmt.Fprintf(out, "Status: %s\n", rec.Status)
	fmt.Fprintf(out, "Model: %s\n", rec.Model)

	if rec.Status == session.StatusRunning {
		if pid := a.store.ReadPID(id); pid > 0 && !detach.IsAlive(pid) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Runner process %d is no longer alive; the session may never finish.\n", pid)
		}
	}

	opts := []poller.Option{
		poller.WithInterval(a.cfg.PollInterval),
		poller.WithLogger(a.logger),
	}
	if a.cfg.WatchEvents {
		waker, err := poller.NewEventWaker(a.store.Dir(id), a.logger)
		if err != nil {
			a.logger.Warn().Err(err).Msg("File events unavailable, polling on a timer")
		} else {
			defer waker.Close()
			opts = append(opts, poller.WithWaker(waker))
		}
	}

	res, err := poller.New(a.store, opts...).Attach(cmd.Context(), id, out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	}
	if res.Vanished {
		return nil, nil
	}

	latest := res.Record
	if latest.Status == session.StatusError && latest.ErrorMessage != "" {
		fmt.Fprintf(out, "\nSession failed: %s\n", latest.ErrorMessage)
	}
	if latest.Usage != nil {
		fmt.Fprintf(out, "\nFinished (tok i/o/r/t: %s)\n", latest.Usage.Tokens())
	}
	return latest, nil
}
