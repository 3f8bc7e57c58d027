package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincontrol/internal/storage"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "data"), 0)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "fincontrol_pro_data")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "fincontrol_pro_data", []byte(`{"version":1}`)))
	require.NoError(t, s.Set(ctx, "fincontrol_pro_data", []byte(`{"version":2}`)))

	got, ok, err := s.Get(ctx, "fincontrol_pro_data")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":2}`, string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Error(t, s.Set(context.Background(), "../escape", []byte("x")))
}

func TestFileStoreQuota(t *testing.T) {
	s, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Set(context.Background(), "k", []byte("abcd")), storage.ErrQuotaExceeded)
}
