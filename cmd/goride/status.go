package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/route"
)

func newStatusCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the session and today's poll together",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				return runStatus(cmd.Context(), a, env.out, env.now(), env.jsonOutput)
			})
		},
	}
}

type statusView struct {
	Session   string    `json:"session"`
	Role      string    `json:"role"`
	Home      string    `json:"home,omitempty"`
	TodayPoll *api.Poll `json:"today_poll"`
	PollError string    `json:"poll_error,omitempty"`
}

// runStatus checks the session and fetches today's poll concurrently. A poll
// failure is reported but does not fail the command; an invalid session does.
func runStatus(ctx context.Context, a *app, w io.Writer, now time.Time, asJSON bool) int {
	var (
		valid bool
		role  permission.Role
		poll  *api.Poll
		g     errgroup.Group
	)
	g.Go(func() error {
		valid = a.client.VerifyAndRefresh(ctx)
		role = a.client.Role(ctx)
		return nil
	})
	g.Go(func() error {
		var err error
		poll, err = a.api.TodayPoll(ctx, now)
		return err
	})
	pollErr := g.Wait()

	view := statusView{Session: "invalid", Role: role.String(), TodayPoll: poll}
	if valid {
		view.Session = "valid"
		if home, ok := a.guard.Table().Lookup(route.DefaultHomes()[role]); ok {
			view.Home = home.Path
		}
	}
	if pollErr != nil {
		view.PollError = pollErr.Error()
	}

	if asJSON {
		writeJSON(w, view)
	} else {
		fmt.Fprintf(w, "Session:  %s\nRole:     %s\n", view.Session, view.Role)
		if view.Home != "" {
			fmt.Fprintf(w, "Home:     %s\n", view.Home)
		}
		switch {
		case pollErr != nil:
			fmt.Fprintf(w, "Today:    unavailable (%v)\n", pollErr)
		case poll == nil:
			fmt.Fprintln(w, "Today:    no poll")
		default:
			fmt.Fprintf(w, "Today:    poll %d (%s, %d votes)\n", poll.ID, poll.Status, len(poll.Votes))
		}
	}

	if !valid {
		return exitFailed
	}
	return exitOK
}
