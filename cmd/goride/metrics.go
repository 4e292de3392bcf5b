package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goSession/metrics/export/prometheus"
)

func newMetricsCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Check the session and print this process's metrics in Prometheus format",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				return runMetrics(cmd.Context(), a, env.out)
			})
		},
	}
}

// runMetrics runs one VerifyAndRefresh so the counters reflect a real check,
// then renders them.
func runMetrics(ctx context.Context, a *app, w io.Writer) int {
	a.client.VerifyAndRefresh(ctx)
	out := prometheus.NewPrometheusExporter(a.client).Render()
	if out == "" {
		fmt.Fprintln(w, "# metrics disabled (GORIDE_METRICS_ENABLED=false)")
		return exitOK
	}
	fmt.Fprint(w, out)
	return exitOK
}
