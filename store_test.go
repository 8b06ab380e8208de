package tiktok

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "stats.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, ok, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "missing file is not an error")

	rec := counts{followers: 1500, likes: 32000, videos: 41}.record(fixedNow, StatusAPI, SourceAPI)
	require.NoError(t, store.Write(ctx, rec))

	got, ok, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, path, store.Path())
}

func TestFileStore_Format(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stats.json")
	store := NewFileStore(path)

	require.NoError(t, store.Write(context.Background(), SampleRecord(fixedNow)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
  "followers": 888,
  "likes": 12345,
  "videos": 66,
  "lastUpdate": "2025-03-14 15:09:26",
  "status": "test_data",
  "source": "manual_test"
}
`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileStore_Overwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "stats.json"))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, SampleRecord(fixedNow)))
	require.NoError(t, store.Write(ctx, ResetRecord(fixedNow)))

	got, ok, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusForcedZero, got.Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"followers":`), 0o644))

	_, ok, err := NewFileStore(path).Read(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestFileStore_WriteIntoFile(t *testing.T) {
	t.Parallel()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := NewFileStore(filepath.Join(blocker, "stats.json")).Write(context.Background(), SampleRecord(fixedNow))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty := NewMemoryStore(nil)
	_, ok, err := empty.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seed := SampleRecord(fixedNow)
	store := NewMemoryStore(&seed)
	seed.Followers = 1

	got, ok, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(888), got.Followers, "store keeps its own copy")

	require.NoError(t, store.Write(ctx, ResetRecord(fixedNow)))
	got, _, _ = store.Read(ctx)
	assert.Equal(t, StatusForcedZero, got.Status)
}
