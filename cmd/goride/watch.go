package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/poller"
)

func newWatchCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live data until it settles",
	}

	var interval time.Duration
	trip := &cobra.Command{
		Use:   "trip <trip-id>",
		Short: "Poll a trip's status until it completes",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tripID, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(env.errOut, "Error: invalid trip id %q\n", args[0])
				env.code = exitErrored
				return
			}
			env.withApp(cmd.Context(), func(a *app) int {
				every := interval
				if every <= 0 {
					every = a.settings.PollInterval
				}
				return runWatchTrip(cmd.Context(), a.api, env.out, a.logger, tripID, every)
			})
		},
	}
	trip.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default GORIDE_POLL_INTERVAL)")
	cmd.AddCommand(trip)
	return cmd
}

type tripWatcher struct {
	api    *api.Client
	w      io.Writer
	tripID int

	mu        sync.Mutex
	last      string
	completed bool
	missing   bool
}

// poll prints the trip line when it changes and stops once the trip is
// completed or gone.
func (t *tripWatcher) poll(ctx context.Context) error {
	status, err := t.api.TripStatus(ctx, t.tripID)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusNotFound || statusErr.Status == http.StatusUnauthorized) {
			t.mu.Lock()
			t.missing = true
			t.mu.Unlock()
			fmt.Fprintf(t.w, "Trip %d: %s\n", t.tripID, statusErr.Error())
			return poller.ErrStopPolling
		}
		return err
	}

	line := formatTripStatus(*status)
	t.mu.Lock()
	changed := line != t.last
	t.last = line
	t.completed = status.Completed()
	t.mu.Unlock()

	if changed {
		fmt.Fprintln(t.w, line)
	}
	if status.Completed() {
		return poller.ErrStopPolling
	}
	return nil
}

// runWatchTrip prints the current status right away and then follows it with a
// poller, whose first call comes one interval later.
func runWatchTrip(ctx context.Context, c *api.Client, w io.Writer, logger *zap.Logger, tripID int, interval time.Duration) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher := &tripWatcher{api: c, w: w, tripID: tripID}

	err := watcher.poll(ctx)
	if !errors.Is(err, poller.ErrStopPolling) {
		if err != nil && ctx.Err() == nil {
			logger.Warn("goSession: poll failed", zap.Error(err))
		}
		p := poller.New(logger)
		p.Start(ctx, watcher.poll, interval)
		defer p.Stop()

		select {
		case <-p.Done():
		case <-ctx.Done():
		}
	}

	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	switch {
	case watcher.completed:
		return exitOK
	case watcher.missing:
		return exitFailed
	default:
		// Interrupted.
		return exitOK
	}
}

func formatTripStatus(s api.TripStatus) string {
	t := s.Trip
	line := fmt.Sprintf("Trip %d (%s): %s", t.ID, t.TripType, t.Status)
	if t.Status != api.TripInProgress {
		return line
	}
	if t.CurrentBoardingPoint != nil {
		line += fmt.Sprintf(", at %s", t.CurrentBoardingPoint.Name)
		if t.CurrentPointIndex != nil && t.TotalBoardingPoints > 0 {
			line += fmt.Sprintf(" (%d/%d)", *t.CurrentPointIndex+1, t.TotalBoardingPoints)
		}
	}
	return line + fmt.Sprintf(", %d students boarding", s.CurrentStudentCount)
}
