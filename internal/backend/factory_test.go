package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincontrol/internal/config"
	"fincontrol/internal/store"
)

func TestCreateBackendPerType(t *testing.T) {
	dir := t.TempDir()
	cases := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "fincontrol.db")},
	}

	for _, cfg := range cases {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer res.Cleanup()

			assert.False(t, res.Publishing)
			_, err = res.Store.Add(ctx, store.Sales, store.Record{"date": "2024-01-01", "amount": 5})
			require.NoError(t, err)
			sales, err := res.Store.GetAll(ctx, store.Sales)
			require.NoError(t, err)
			assert.Len(t, sales, 1)
		})
	}
}

func TestFileBackendPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: FileBackend, DataDirectory: t.TempDir()}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	_, err = res.Store.AddCategory(ctx, "Renta")
	require.NoError(t, err)
	require.NoError(t, res.Cleanup())

	res, err = NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer res.Cleanup()
	ok, err := res.Store.HasCategory(ctx, "Renta")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")
	assert.ErrorContains(t, err, "expected one of memory, file, sqlite")

	_, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend})
	assert.ErrorContains(t, err, "SQLite database path is required")

	_, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/"})
	assert.ErrorContains(t, err, "AMQP exchange and queue")

	_, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, Locale: "!!"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", StoreQuotaBytes: 10, Locale: "es-MX"}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, 10, cfg.QuotaBytes)

	_, err = FromAppConfig(&config.Config{DataBackend: "nope"})
	assert.ErrorContains(t, err, "expected one of memory, file, sqlite")
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "file", "sqlite"}, GetBackendTypeStrings())
}
