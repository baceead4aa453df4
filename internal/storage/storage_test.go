package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateway interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	SetAll(entries map[string]string) error
	Clear() error
	Keys() ([]string, error)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGateways(t *testing.T) {
	gateways := map[string]func(t *testing.T) gateway{
		"sqlite": func(t *testing.T) gateway { return openTestDB(t) },
		"memory": func(t *testing.T) gateway { return NewMemory() },
	}

	for name, open := range gateways {
		t.Run(name, func(t *testing.T) {
			gw := open(t)

			_, ok, err := gw.Get("words")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, gw.Set("words", "[]"))
			require.NoError(t, gw.Set("words", `[{"a":1}]`))
			v, ok, err := gw.Get("words")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"a":1}]`, v)

			require.NoError(t, gw.SetAll(map[string]string{"POS": `["n"]`, "setting": "{}"}))
			keys, err := gw.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"POS", "setting", "words"}, keys)

			require.NoError(t, gw.Set("empty", ""))
			v, ok, err = gw.Get("empty")
			require.NoError(t, err)
			assert.True(t, ok, "empty values are still present")
			assert.Empty(t, v)

			require.NoError(t, gw.Clear())
			keys, err = gw.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestDBPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordbook.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("version", "v1.0"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get("version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1.0", v)
}
