package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	goSession "github.com/MrEthical07/goSession"
)

func newLoginCmd(env *environment) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the session",
		Long: `Log in with a username and password. Without --password the password is read
from the first line of standard input.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				pw := password
				if pw == "" {
					fmt.Fprint(env.errOut, "Password: ")
					pw = readLine(env.in)
				}
				return runLogin(cmd.Context(), a, env.out, args[0], pw, env.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	return cmd
}

func newLogoutCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				return runLogout(cmd.Context(), a, env.out)
			})
		},
	}
}

func newWhoamiCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session without contacting the backend",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				return runWhoami(cmd.Context(), a, env.out, env.now(), env.jsonOutput)
			})
		},
	}
}

func newVerifyCmd(env *environment) *cobra.Command {
	var noRefresh bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the session with the backend, refreshing it if needed",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.withApp(cmd.Context(), func(a *app) int {
				return runVerify(cmd.Context(), a, env.out, !noRefresh)
			})
		},
	}
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Only verify; never refresh")
	return cmd
}

func runLogin(ctx context.Context, a *app, w io.Writer, username, password string, asJSON bool) int {
	res, err := a.client.Login(ctx, username, password)
	switch {
	case errors.Is(err, goSession.ErrInvalidCredentials):
		fmt.Fprintln(w, "Login failed: invalid username or password")
		return exitFailed
	case err != nil:
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitErrored
	}

	if asJSON {
		writeJSON(w, sessionView{
			Authenticated: true,
			SubjectID:     res.Claims.SubjectID,
			Role:          res.Role.String(),
			ExpiresAt:     expiry(res.Claims.ExpiresAt),
		})
		return exitOK
	}
	fmt.Fprintf(w, "Logged in as %s (role: %s)\n", username, res.Role)
	return exitOK
}

func runLogout(ctx context.Context, a *app, w io.Writer) int {
	if err := a.client.Logout(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitErrored
	}
	fmt.Fprintln(w, "Logged out")
	return exitOK
}

type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	SubjectID     string `json:"subject_id,omitempty"`
	Role          string `json:"role"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Expired       bool   `json:"expired"`
}

func runWhoami(ctx context.Context, a *app, w io.Writer, now time.Time, asJSON bool) int {
	view := sessionView{Role: a.client.Role(ctx).String()}
	claims, err := a.client.Claims(ctx)
	switch {
	case errors.Is(err, goSession.ErrNotAuthenticated):
	case errors.Is(err, goSession.ErrMalformedCredential):
		view.Authenticated = true
	case err != nil:
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitErrored
	default:
		view.Authenticated = true
		view.SubjectID = claims.SubjectID
		view.ExpiresAt = expiry(claims.ExpiresAt)
		view.Expired = claims.Expired(now)
	}

	if asJSON {
		writeJSON(w, view)
	} else if !view.Authenticated {
		fmt.Fprintln(w, "Not logged in")
	} else {
		fmt.Fprintf(w, "Subject:  %s\nRole:     %s\n", orDash(view.SubjectID), view.Role)
		if view.ExpiresAt != "" {
			state := "valid"
			if view.Expired {
				state = "expired, refresh on next request"
			}
			fmt.Fprintf(w, "Expires:  %s (%s)\n", view.ExpiresAt, state)
		}
	}

	if !view.Authenticated {
		return exitFailed
	}
	return exitOK
}

func runVerify(ctx context.Context, a *app, w io.Writer, refresh bool) int {
	var ok bool
	if refresh {
		ok = a.client.VerifyAndRefresh(ctx)
	} else {
		ok = a.client.Verify(ctx)
	}
	if !ok {
		fmt.Fprintln(w, "Session invalid")
		return exitFailed
	}
	fmt.Fprintln(w, "Session valid")
	return exitOK
}

func readLine(r io.Reader) string {
	if r == nil {
		return ""
	}
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimRight(sc.Text(), "\r")
}

func expiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
