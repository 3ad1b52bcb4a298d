package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()

	_, err := kv.Get("accounts")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set("accounts", "[]"))
	require.NoError(t, kv.Set("accounts", `[{"id":1}]`))
	require.NoError(t, kv.Set("recentTrades", ""))

	v, err := kv.Get("accounts")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v)

	v, err = kv.Get("recentTrades")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestMemory(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	exerciseKV(t, m)
	assert.NoError(t, m.Close())
}

func TestMemoryZeroValue(t *testing.T) {
	t.Parallel()

	exerciseKV(t, &Memory{})
}

func TestSQLiteInMemory(t *testing.T) {
	t.Parallel()

	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseKV(t, s)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "recentTrades"}, keys)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "fxreplay.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("accounts", `[{"id":7}]`))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	v, err := s.Get("accounts")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":7}]`, v)
}
