package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goSession/route"
)

func newRouteCmd(env *environment) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "route [name|path]",
		Short: "Decide where a navigation would land for the current session",
		Long: `Run the route guard for a route name (e.g. trips) or path (e.g. /viagens).
Exits 0 when the navigation is allowed and 1 when it is redirected.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if list || len(args) == 0 {
				env.code = runRoutes(env.out, route.DefaultTable())
				return
			}
			env.withApp(cmd.Context(), func(a *app) int {
				return runRoute(cmd.Context(), a.guard, env.out, args[0], env.jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List known routes")
	return cmd
}

type decisionView struct {
	Outcome string `json:"outcome"`
	Route   string `json:"route"`
	Path    string `json:"path"`
}

func runRoute(ctx context.Context, guard *route.Guard, w io.Writer, target string, asJSON bool) int {
	var (
		d   route.Decision
		err error
	)
	if strings.HasPrefix(target, "/") {
		d, err = guard.NavigatePath(ctx, target)
	} else {
		d, err = guard.Navigate(ctx, target)
	}
	if errors.Is(err, route.ErrUnknownRoute) {
		fmt.Fprintf(w, "Unknown route %q; run 'goride route --list'\n", target)
		return exitErrored
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitErrored
	}

	if asJSON {
		writeJSON(w, decisionView{Outcome: d.Outcome.String(), Route: d.Target.Name, Path: d.Target.Path})
	} else {
		fmt.Fprintf(w, "%s -> %s (%s)\n", d.Outcome, d.Target.Name, d.Target.Path)
	}
	if d.Outcome != route.Allow {
		return exitFailed
	}
	return exitOK
}

func runRoutes(w io.Writer, table *route.Table) int {
	for _, d := range table.Routes() {
		access := "public"
		if d.RequiresAuth {
			access = "any role"
			if d.AllowedRoles.Restricted() {
				access = d.AllowedRoles.String()
			}
		}
		fmt.Fprintf(w, "%-18s %-22s %s\n", d.Name, d.Path, access)
	}
	return exitOK
}
