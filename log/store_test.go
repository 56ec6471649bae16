package log

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendTracksPosition(t *testing.T) {
	dir := t.TempDir()
	s, err := openStore(filepath.Join(dir, "0.log"))
	require.NoError(t, err)
	defer s.Close()

	pos, err := s.Append([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
	assert.Equal(t, int64(5), s.Size())

	pos, err = s.Append([]byte("world!"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)
	assert.Equal(t, int64(11), s.Size())
}

func TestStoreTruncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.log")
	s, err := openStore(path)
	require.NoError(t, err)

	_, err = s.Append([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, s.Truncate(4))
	assert.Equal(t, int64(4), s.Size())
	require.NoError(t, s.Close())

	reopened, err := openStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(4), reopened.Size())
}
