package entrypoint

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmosuniversity/studentrecords/internal/config"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/memory"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/sqlite"
)

func testConfig(driver config.Driver) *config.Config {
	return &config.Config{
		DocumentDB: config.DocumentDB{Driver: driver},
		Log:        config.Log{Level: "info"},
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.DocumentDB.Path = filepath.Join(t.TempDir(), "records.db")

	store, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer store.Client.Close()

	assert.IsType(t, &sqlite.Store{}, store.Client)
	assert.IsType(t, &sqlite3store.SQLite3Store{}, store.Sessions)
	assert.NoError(t, store.Client.Ping(context.Background()))
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), testConfig(config.DriverMemory), zerolog.Nop())
	require.NoError(t, err)

	assert.IsType(t, &memory.Store{}, store.Client)
	assert.Nil(t, store.Sessions)
}

func TestOpenStore_SurrealRequiresEndpoint(t *testing.T) {
	_, err := OpenStore(context.Background(), testConfig(config.DriverSurreal), zerolog.Nop())
	assert.ErrorContains(t, err, "DOCUMENTDB_ENDPOINT")
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), testConfig("cassandra"), zerolog.Nop())
	assert.ErrorContains(t, err, `unknown DOCUMENTDB_DRIVER "cassandra"`)
}

func TestCSRFSecret(t *testing.T) {
	t.Run("generated when empty", func(t *testing.T) {
		secret, generated, err := CSRFSecret("")
		require.NoError(t, err)
		assert.True(t, generated)
		assert.Len(t, secret, csrfSecretLength)

		other, _, err := CSRFSecret("")
		require.NoError(t, err)
		assert.NotEqual(t, secret, other)
	})

	t.Run("hex decoded", func(t *testing.T) {
		raw := []byte(strings.Repeat("k", csrfSecretLength))
		secret, generated, err := CSRFSecret(hex.EncodeToString(raw))
		require.NoError(t, err)
		assert.False(t, generated)
		assert.Equal(t, raw, secret)
	})

	t.Run("raw bytes", func(t *testing.T) {
		configured := strings.Repeat("z", 40)
		secret, _, err := CSRFSecret(configured)
		require.NoError(t, err)
		assert.Equal(t, []byte(configured), secret)
	})

	t.Run("too short", func(t *testing.T) {
		_, _, err := CSRFSecret("short")
		assert.Error(t, err)
	})
}
