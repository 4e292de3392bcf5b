package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLISessionAcrossInvocations(t *testing.T) {
	b := startBackend(t)
	cli := newCLIEnv(t, b)

	code, out, _ := cli.run(studentUser.Password+"\n", "login", studentUser.Username)
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Logged in as ana@example.com (role: student)")

	code, out, _ = cli.run("", "whoami", "--json")
	require.Equal(t, exitOK, code)
	var view sessionView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "7", view.SubjectID)
	assert.Equal(t, "student", view.Role)

	b.ExpireAccess()
	code, out, _ = cli.run("", "route", "trips")
	assert.Equal(t, exitFailed, code)
	assert.Equal(t, "redirect-role-home -> polls (/enquetes)\n", out)
	assert.Equal(t, 1, b.RefreshCalls())

	code, out, _ = cli.run("", "logout")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Logged out\n", out)
	_, err := os.Stat(cli.dir + "/credentials.json")
	assert.True(t, os.IsNotExist(err))

	code, out, _ = cli.run("", "verify")
	assert.Equal(t, exitFailed, code)
	assert.Equal(t, "Session invalid\n", out)
}

func TestCLIPasswordFlag(t *testing.T) {
	b := startBackend(t)
	cli := newCLIEnv(t, b)

	code, out, _ := cli.run("", "login", driverUser.Username, "--password", "nope")
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, out, "Login failed")

	code, _, _ = cli.run("", "login", driverUser.Username, "--password", driverUser.Password)
	require.Equal(t, exitOK, code)
	code, out, _ = cli.run("", "route", "/viagens")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "allow -> trips (/viagens)\n", out)
}

func TestCLIArgumentErrors(t *testing.T) {
	b := startBackend(t)
	cli := newCLIEnv(t, b)

	code, _, errOut := cli.run("", "boarding", "abc")
	assert.Equal(t, exitErrored, code)
	assert.Contains(t, errOut, `invalid poll id "abc"`)

	code, _, errOut = cli.run("", "boarding", "5", "--trip-type", "sideways")
	assert.Equal(t, exitErrored, code)
	assert.Contains(t, errOut, "invalid trip type")

	code, _, errOut = cli.run("", "login")
	assert.Equal(t, exitErrored, code)
	assert.Contains(t, errOut, "accepts 1 arg")
}

func TestCLIMissingConfiguration(t *testing.T) {
	b := startBackend(t)
	cli := newCLIEnv(t, b)
	t.Setenv("GORIDE_AUTHENTICATION_URL", "")
	os.Unsetenv("GORIDE_AUTHENTICATION_URL")

	code, _, errOut := cli.run("", "whoami")
	assert.Equal(t, exitErrored, code)
	assert.Contains(t, errOut, "GORIDE_AUTHENTICATION_URL")
}

func TestCLIEventsWrittenToStderr(t *testing.T) {
	b := startBackend(t)
	cli := newCLIEnv(t, b)
	t.Setenv("GORIDE_EVENTS_ENABLED", "true")

	code, _, errOut := cli.run("", "login", studentUser.Username, "--password", studentUser.Password)
	require.Equal(t, exitOK, code)
	assert.Contains(t, errOut, `"kind":"login"`)
	assert.Contains(t, errOut, `"outcome":"ok"`)
}

func TestCLIRouteListNeedsNoConfiguration(t *testing.T) {
	t.Setenv("GORIDE_API_URL", "")
	os.Unsetenv("GORIDE_API_URL")

	var out syncBuffer
	env := newEnvironment(nil, &out, &out)
	code := execute(t.Context(), []string{"route", "--list"}, env)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), "admin-dashboard")
}
