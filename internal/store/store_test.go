package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"minewatch/internal/models"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "sensors")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "sensors", []byte(`[{"id":"1"}]`)))

	got, err := s.Get(ctx, "sensors")
	require.NoError(t, err)
	require.Equal(t, []byte(`[{"id":"1"}]`), got)

	// Overwrite replaces the previous value.
	require.NoError(t, s.Set(ctx, "sensors", []byte(`[]`)))
	got, err = s.Get(ctx, "sensors")
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), got)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", payload))

	payload[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)

	got[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_FaultInjection(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	s.FailNext(2)

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, models.ErrStorage)

	err = s.Set(ctx, "k", []byte("v"))
	require.ErrorIs(t, err, models.ErrStorage)

	// Fault budget exhausted, operations recover.
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "minewatch.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "alerts")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "alerts", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "alerts", []byte(`[{"id":"1"}]`)))

	got, err := s.Get(ctx, "alerts")
	require.NoError(t, err)
	require.Equal(t, []byte(`[{"id":"1"}]`), got)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "minewatch.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "sensors", []byte(`["x"]`)))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "sensors")
	require.NoError(t, err)
	require.Equal(t, []byte(`["x"]`), got)
}
