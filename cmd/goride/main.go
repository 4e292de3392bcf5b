// Command goride is a terminal client for the ride-coordination backend. It keeps
// a session on disk (or in Redis) and reads polls, boarding lists, and trips
// through the refreshing gateway.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], newEnvironment(os.Stdin, os.Stdout, os.Stderr))
	cancel()
	os.Exit(code)
}
