package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/config"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/internal/testbackend"
)

var (
	studentUser = testbackend.User{ID: 7, Username: "ana@example.com", Password: "pw-ana", Role: "student"}
	driverUser  = testbackend.User{ID: 9, Username: "joao@example.com", Password: "pw-joao", Role: "driver"}
)

// syncBuffer is a bytes.Buffer safe for the poller goroutine to write to.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startBackend(t *testing.T) *testbackend.Backend {
	t.Helper()
	b := testbackend.Start(t, testbackend.Options{})
	b.AddUser(studentUser)
	b.AddUser(driverUser)
	return b
}

func testSettings(b *testbackend.Backend) config.Settings {
	s := config.Settings{
		APIURL:         b.APIURL(),
		AuthURL:        b.AuthURL(),
		Store:          config.StoreSettings{Backend: config.StoreMemory},
		MetricsEnabled: true,
	}
	s.Sanitize()
	return s
}

func newTestApp(t *testing.T, b *testbackend.Backend) *app {
	t.Helper()
	a, err := newApp(context.Background(), testSettings(b), zap.NewNop(), io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func loginAs(t *testing.T, a *app, u testbackend.User) {
	t.Helper()
	_, err := a.client.Login(context.Background(), u.Username, u.Password)
	require.NoError(t, err)
}

// cliEnv runs commands against b with a credential file under dir, the way a
// user's shell would across invocations.
type cliEnv struct {
	t   *testing.T
	dir string
}

func newCLIEnv(t *testing.T, b *testbackend.Backend) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GORIDE_API_URL", b.APIURL())
	t.Setenv("GORIDE_AUTHENTICATION_URL", b.AuthURL())
	t.Setenv("GORIDE_STORE_BACKEND", "file")
	t.Setenv("GORIDE_STORE_PATH", filepath.Join(dir, "credentials.json"))
	t.Setenv("GORIDE_LOG_FORMAT", "json")
	return &cliEnv{t: t, dir: dir}
}

func (c *cliEnv) run(stdin string, args ...string) (code int, stdout, stderr string) {
	c.t.Helper()
	var out, errOut syncBuffer
	env := newEnvironment(strings.NewReader(stdin), &out, &errOut)
	env.load = func(...string) (config.Settings, error) {
		return config.Load(filepath.Join(c.dir, "absent.env"))
	}
	env.newLogger = func(level, format string) (*zap.Logger, error) {
		return logging.NewWriter(&errOut, level, format)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code = execute(ctx, args, env)
	return code, out.String(), errOut.String()
}
