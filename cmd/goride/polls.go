package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goSession/api"
)

func newPollsCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polls",
		Short: "Read transport polls",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "today",
			Short: "Show today's poll and its vote tally",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				env.withApp(cmd.Context(), func(a *app) int {
					return runPollsToday(cmd.Context(), a.api, env.out, env.now(), env.jsonOutput)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every poll",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				env.withApp(cmd.Context(), func(a *app) int {
					return runPollsList(cmd.Context(), a.api, env.out, env.jsonOutput)
				})
			},
		},
	)
	return cmd
}

func newBoardingCmd(env *environment) *cobra.Command {
	var tripType string
	cmd := &cobra.Command{
		Use:   "boarding <poll-id>",
		Short: "Show who boards where for a poll",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			pollID, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(env.errOut, "Error: invalid poll id %q\n", args[0])
				env.code = exitErrored
				return
			}
			tt, err := api.ParseTripType(tripType)
			if err != nil {
				fmt.Fprintf(env.errOut, "Error: %v\n", err)
				env.code = exitErrored
				return
			}
			env.withApp(cmd.Context(), func(a *app) int {
				return runBoarding(cmd.Context(), a.api, env.out, pollID, tt, env.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&tripType, "trip-type", string(api.Outbound), "outbound or return")
	return cmd
}

func runPollsToday(ctx context.Context, c *api.Client, w io.Writer, now time.Time, asJSON bool) int {
	poll, err := c.TodayPoll(ctx, now)
	if err != nil {
		return reportAPIError(w, err)
	}
	if asJSON {
		writeJSON(w, poll)
		return exitOK
	}
	if poll == nil {
		fmt.Fprintf(w, "No poll for %s\n", now.Local().Format(time.DateOnly))
		return exitOK
	}
	fmt.Fprintln(w, formatPoll(*poll))
	return exitOK
}

func runPollsList(ctx context.Context, c *api.Client, w io.Writer, asJSON bool) int {
	polls, err := c.Polls(ctx)
	if err != nil {
		return reportAPIError(w, err)
	}
	if asJSON {
		writeJSON(w, polls)
		return exitOK
	}
	if len(polls) == 0 {
		fmt.Fprintln(w, "No polls")
		return exitOK
	}
	for _, p := range polls {
		fmt.Fprintf(w, "%-6d %s  %-8s %d votes\n", p.ID, p.Date, p.Status, len(p.Votes))
	}
	return exitOK
}

// formatPoll renders a poll header followed by the vote count per option.
func formatPoll(p api.Poll) string {
	tally := make(map[string]int)
	for _, v := range p.Votes {
		tally[v.Option]++
	}
	options := make([]string, 0, len(tally))
	for opt := range tally {
		options = append(options, opt)
	}
	sort.Strings(options)

	var b strings.Builder
	fmt.Fprintf(&b, "Poll %d (%s, %s): %d votes", p.ID, p.Date, p.Status, len(p.Votes))
	for _, opt := range options {
		fmt.Fprintf(&b, "\n  %-20s %d", opt, tally[opt])
	}
	return b.String()
}

func runBoarding(ctx context.Context, c *api.Client, w io.Writer, pollID int, tripType api.TripType, asJSON bool) int {
	groups, err := c.BoardingList(ctx, pollID, tripType)
	if err != nil {
		return reportAPIError(w, err)
	}
	if asJSON {
		writeJSON(w, groups)
		return exitOK
	}
	if len(groups) == 0 {
		fmt.Fprintf(w, "Nobody boards on poll %d (%s)\n", pollID, tripType)
		return exitOK
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", g.Label(), len(g.Students))
		for _, s := range g.Students {
			fmt.Fprintf(w, "  - %s\n", s.Name)
		}
	}
	return exitOK
}

// reportAPIError prints err and maps it to an exit code. A 401 here means the
// gateway could not refresh and the session has ended.
func reportAPIError(w io.Writer, err error) int {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusUnauthorized:
			fmt.Fprintln(w, "Session expired; run 'goride login'")
			return exitFailed
		case http.StatusForbidden:
			fmt.Fprintln(w, "Not allowed for this role")
			return exitFailed
		case http.StatusNotFound:
			fmt.Fprintln(w, "Not found")
			return exitFailed
		}
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitErrored
}
