package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/config"
	"github.com/MrEthical07/goSession/internal/logging"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitErrored = 2
)

// environment carries process I/O and global flags into commands.
type environment struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	now       func() time.Time
	load      func(files ...string) (config.Settings, error)
	newLogger func(level, format string) (*zap.Logger, error)

	envFile    string
	logLevel   string
	jsonOutput bool

	code int
}

func newEnvironment(in io.Reader, out, errOut io.Writer) *environment {
	return &environment{
		in:        in,
		out:       out,
		errOut:    errOut,
		now:       time.Now,
		load:      config.Load,
		newLogger: logging.New,
	}
}

func execute(ctx context.Context, args []string, env *environment) int {
	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetIn(env.in)
	root.SetOut(env.out)
	root.SetErr(env.errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(env.errOut, "Error: %v\n", err)
		return exitErrored
	}
	return env.code
}

func newRootCmd(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:   "goride",
		Short: "Terminal client for the ride-coordination backend",
		Long: `goride keeps a session with the ride-coordination backend and reads polls,
boarding lists, and trip status through a gateway that refreshes expired
credentials on its own.

Environment Variables:
  GORIDE_API_URL              Data API base URL (required)
  GORIDE_AUTHENTICATION_URL   Login endpoint URL (required)
  GORIDE_STORE_BACKEND        file, redis, or memory (default: file)
  GORIDE_STORE_PATH           Credential file path
  GORIDE_REDIS_ADDR           Redis address for the redis store
  GORIDE_LOG_LEVEL            debug, info, warn, or error (default: info)
  GORIDE_LOG_FORMAT           text or json (default: text)`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&env.envFile, "env-file", "", "Load variables from this file instead of .env")
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "Log level (overrides GORIDE_LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&env.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		newLoginCmd(env),
		newLogoutCmd(env),
		newWhoamiCmd(env),
		newVerifyCmd(env),
		newRouteCmd(env),
		newPollsCmd(env),
		newBoardingCmd(env),
		newWatchCmd(env),
		newStatusCmd(env),
		newMetricsCmd(env),
	)
	return root
}

// withApp opens the app, hands it to run, and records run's exit code.
func (env *environment) withApp(ctx context.Context, run func(a *app) int) {
	a, code := env.open(ctx)
	if a == nil {
		env.code = code
		return
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("goride: close", zap.Error(err))
		}
	}()
	env.code = run(a)
}

func (env *environment) open(ctx context.Context) (*app, int) {
	var files []string
	if env.envFile != "" {
		files = append(files, env.envFile)
	}
	s, err := env.load(files...)
	if err != nil {
		fmt.Fprintf(env.errOut, "Error: %v\n", err)
		return nil, exitErrored
	}
	if env.logLevel != "" {
		s.Log.Level = env.logLevel
	}

	logger, err := env.newLogger(s.Log.Level, s.Log.Format)
	if err != nil {
		fmt.Fprintf(env.errOut, "Error: %v\n", err)
		return nil, exitErrored
	}

	a, err := newApp(ctx, s, logger, env.errOut)
	if err != nil {
		fmt.Fprintf(env.errOut, "Error: %v\n", err)
		return nil, exitErrored
	}
	return a, exitOK
}

func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
