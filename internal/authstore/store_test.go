package authstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	store := New(t.TempDir())

	store.Save("tok-abc", 1700000000000)
	auth := store.Load()
	assert.Equal(t, "tok-abc", auth.Token)
	assert.Equal(t, int64(1700000000000), auth.ExpiresAt)
}

func TestStore_SaveWithoutExpiryDropsStored(t *testing.T) {
	store := New(t.TempDir())

	store.Save("tok-1", 1700000000000)
	store.Save("tok-2", 0)

	auth := store.Load()
	assert.Equal(t, "tok-2", auth.Token)
	assert.Zero(t, auth.ExpiresAt)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))
	assert.Equal(t, StoredAuth{}, store.Load())
}

func TestStore_LoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not json"), 0o600))

	store := New(dir)
	assert.Equal(t, StoredAuth{}, store.Load())
}

func TestStore_Clear(t *testing.T) {
	store := New(t.TempDir())
	store.Save("tok", 0)
	store.Clear()
	assert.Equal(t, StoredAuth{}, store.Load())

	// Clearing an already-empty store is fine.
	store.Clear()
}

func TestStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	store.Save("secret", 0)

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
