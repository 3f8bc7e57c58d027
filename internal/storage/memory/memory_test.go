package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincontrol/internal/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(0)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	buf := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x' // caller mutation must not leak into the store

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestStoreQuota(t *testing.T) {
	s := New(4)
	err := s.Set(context.Background(), "k", []byte("12345"))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

	_, ok, _ := s.Get(context.Background(), "k")
	assert.False(t, ok)
}
