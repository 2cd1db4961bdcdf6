package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "doc:a", []byte("first")))
	got, err := s.Get(ctx, "doc:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	require.NoError(t, s.Put(ctx, "doc:a", []byte("second")))
	got, err = s.Get(ctx, "doc:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, s.Put(ctx, "doc:a/with spaces:and-signed", []byte{0, 1, 2, 255}))
	got, err = s.Get(ctx, "doc:a/with spaces:and-signed")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, got)

	require.NoError(t, s.Delete(ctx, "doc:a"))
	_, err = s.Get(ctx, "doc:a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "doc:a"), "deleting a missing key is not an error")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("concurrent:%d", i)
			assert.NoError(t, s.Put(ctx, key, []byte(key)))
			v, err := s.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, key, string(v))
		}(i)
	}
	wg.Wait()
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()
	assert.ErrorIs(t, m.Put(ctx, "k", []byte("v")), context.Canceled)
	assert.Equal(t, 0, m.Len())
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "doc:x", []byte("pdf")))

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "doc:x")
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(got))
}

func TestFileStoreNeedsDirectory(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestSQLStore(t *testing.T) {
	s, err := OpenSQL(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestSQLStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQL("oracle", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = OpenSQL(DriverPostgres, "")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("DOCSTACKER_TEST_REDIS")
	if addr == "" {
		t.Skip("DOCSTACKER_TEST_REDIS not set")
	}
	s, err := NewRedis(context.Background(), &RedisOptions{
		Addr:   addr,
		Prefix: fmt.Sprintf("docstacker-test-%d", time.Now().UnixNano()),
		TTL:    time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestRedisStoreNeedsAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), &RedisOptions{Addr: "  "})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, &Options{Driver: "FILE", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = Open(ctx, &Options{Driver: DriverSQLite})
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, s)
	s.Close()

	_, err = Open(ctx, &Options{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
