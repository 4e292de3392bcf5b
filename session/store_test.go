package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test:", ttl), mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	require.NoError(t, err)
	rs, _ := newTestRedisStore(t, 0)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"redis":  rs,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for _, kind := range Kinds() {
				v, err := store.Get(ctx, kind)
				require.NoError(t, err)
				assert.Empty(t, v, "fresh store must be empty for %s", kind)
			}

			require.NoError(t, store.Set(ctx, KindAccess, "A1"))
			require.NoError(t, store.Set(ctx, KindRefresh, "R1"))
			require.NoError(t, store.Set(ctx, KindRole, "student"))

			v, err := store.Get(ctx, KindAccess)
			require.NoError(t, err)
			assert.Equal(t, "A1", v)

			require.NoError(t, store.Set(ctx, KindAccess, "A2"))
			v, err = store.Get(ctx, KindAccess)
			require.NoError(t, err)
			assert.Equal(t, "A2", v)

			v, err = store.Get(ctx, KindRefresh)
			require.NoError(t, err)
			assert.Equal(t, "R1", v, "overwriting access must not touch refresh")

			require.NoError(t, store.Clear(ctx))
			for _, kind := range Kinds() {
				v, err := store.Get(ctx, kind)
				require.NoError(t, err)
				assert.Empty(t, v)
			}

			// Clearing an empty store is not an error.
			require.NoError(t, store.Clear(ctx))
		})
	}
}

func TestStoreRejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, Kind("password"))
			assert.ErrorIs(t, err, ErrUnknownKind)
			assert.ErrorIs(t, store.Set(ctx, Kind("password"), "x"), ErrUnknownKind)
		})
	}
}

func TestStoreConcurrentClearNeverTears(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, KindAccess, "A"))
			require.NoError(t, store.Set(ctx, KindRefresh, "R"))

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_, _ = store.Get(ctx, KindAccess)
				}
			}()
			go func() {
				defer wg.Done()
				_ = store.Clear(ctx)
			}()
			wg.Wait()

			access, err := store.Get(ctx, KindAccess)
			require.NoError(t, err)
			refresh, err := store.Get(ctx, KindRefresh)
			require.NoError(t, err)
			assert.Empty(t, access)
			assert.Empty(t, refresh)
		})
	}
}

func TestStoreReplaceSwapsWholeDocument(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Replace(ctx, Credentials{Access: "A1", Refresh: "R1", Role: "driver"}))
			require.NoError(t, store.Replace(ctx, Credentials{Access: "A2", Refresh: "R2"}))

			for kind, want := range map[Kind]string{KindAccess: "A2", KindRefresh: "R2", KindRole: ""} {
				v, err := store.Get(ctx, kind)
				require.NoError(t, err)
				assert.Equal(t, want, v, "kind %s", kind)
			}

			require.NoError(t, store.Replace(ctx, Credentials{}))
			v, err := store.Get(ctx, KindRefresh)
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestStoreReplaceNeverExposesMixedSession(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Replace(ctx, Credentials{Access: "A1", Refresh: "R1", Role: "driver"}))

			done := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					access, _ := store.Get(ctx, KindAccess)
					if access != "A2" {
						continue
					}
					// Once the new access credential is visible the rest of the
					// new session must be too.
					refresh, _ := store.Get(ctx, KindRefresh)
					role, _ := store.Get(ctx, KindRole)
					assert.Equal(t, "R2", refresh)
					assert.Equal(t, "student", role)
					return
				}
			}()

			require.NoError(t, store.Replace(ctx, Credentials{Access: "A2", Refresh: "R2", Role: "student"}))
			close(done)
			wg.Wait()
		})
	}
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	a, err := NewFileStore(path)
	require.NoError(t, err)
	b, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, KindAccess, "shared"))
	v, err := b.Get(ctx, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "shared", v)

	require.NoError(t, b.Clear(ctx))
	v, err = a.Get(ctx, KindAccess)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestFileStorePermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KindRefresh, "R"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorruptDocumentReadsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := s.Get(ctx, KindAccess)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set(ctx, KindAccess, "A"))
	v, err = s.Get(ctx, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestFileStoreEmptyingLastValueRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, KindRole, "driver"))
	require.NoError(t, s.Set(ctx, KindRole, ""))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRedisStoreSingleHash(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	require.NoError(t, s.Set(ctx, KindAccess, "A"))
	require.NoError(t, s.Set(ctx, KindRole, "admin"))

	assert.Equal(t, "test:credentials", s.Key())
	assert.Equal(t, "A", mr.HGet(s.Key(), "access"))
	assert.Equal(t, "admin", mr.HGet(s.Key(), "role"))

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists(s.Key()))
}

func TestRedisStoreReplaceIsOneTransaction(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)

	require.NoError(t, s.Set(ctx, KindRole, "admin"))
	require.NoError(t, s.Replace(ctx, Credentials{Access: "A", Refresh: "R"}))

	assert.Equal(t, "A", mr.HGet(s.Key(), "access"))
	assert.Equal(t, "R", mr.HGet(s.Key(), "refresh"))
	assert.Empty(t, mr.HGet(s.Key(), "role"), "fields missing from the new document are dropped")
	assert.Equal(t, time.Minute, mr.TTL(s.Key()))

	require.NoError(t, s.Replace(ctx, Credentials{}))
	assert.False(t, mr.Exists(s.Key()))
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)

	require.NoError(t, s.Set(ctx, KindRefresh, "R"))
	assert.Equal(t, time.Minute, mr.TTL(s.Key()))

	mr.FastForward(2 * time.Minute)
	v, err := s.Get(ctx, KindRefresh)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)
	mr.Close()

	_, err := s.Get(ctx, KindAccess)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, s.Set(ctx, KindAccess, "A"), ErrStoreUnavailable)
	assert.ErrorIs(t, s.Replace(ctx, Credentials{Access: "A"}), ErrStoreUnavailable)
	assert.ErrorIs(t, s.Clear(ctx), ErrStoreUnavailable)

	_, err = s.Ping(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRedisStoreDefaultPrefix(t *testing.T) {
	s := NewRedisStore(nil, "", 0)
	assert.Equal(t, "gs:credentials", s.Key())
}
