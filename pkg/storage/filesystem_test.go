package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReturnsAbsolutePathUnderBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	path, err := store.Save("report.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "report.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(raw))
}

func TestSaveConfinesTraversalToBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	path, err := store.Save("../../etc/evil.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "etc", "evil.csv"), path)
}

func TestNewLocalStorageCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "exports")
	_, err := NewLocalStorage(base)
	require.NoError(t, err)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
