package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWritesExactBytes(t *testing.T) {
	dir := t.TempDir()
	s := NewTempStorage(dir)

	data := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}
	path, err := s.Stage(".jpg", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".jpg"))
	assert.True(t, s.Exists(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStageCreatesDistinctFiles(t *testing.T) {
	s := NewTempStorage(t.TempDir())

	first, err := s.Stage(".png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := s.Stage(".png", strings.NewReader("a"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStageCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tmp")
	s := NewTempStorage(dir)

	path, err := s.Stage(".jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, s.Exists(path))
}

func TestRemove(t *testing.T) {
	s := NewTempStorage(t.TempDir())

	path, err := s.Stage(".jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(path))
	assert.False(t, s.Exists(path))

	// removing twice is not an error
	assert.NoError(t, s.Remove(path))
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	s := NewTempStorage(dir)

	stale, err := s.Stage(".jpg", strings.NewReader("old"))
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh, err := s.Stage(".jpg", strings.NewReader("new"))
	require.NoError(t, err)

	// чужие файлы не трогаем
	foreign := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(foreign, old, old))

	removed, err := s.RemoveStale(10 * time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.False(t, s.Exists(stale))
	assert.True(t, s.Exists(fresh))
	assert.True(t, s.Exists(foreign))
}

func TestRemoveStaleMissingDirectory(t *testing.T) {
	s := NewTempStorage(filepath.Join(t.TempDir(), "absent"))

	removed, err := s.RemoveStale(time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 0, removed)
}
