package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlog "github.com/vonnegut/vonnegut/log"
)

func TestFilesystemTopicDirectoryCreatesDir(t *testing.T) {
	base := t.TempDir()
	td, err := NewFilesystemTopicDirectory([]string{base})
	require.NoError(t, err)

	dir, err := td.Dir("orders", 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "orders-3"), dir)
	assert.DirExists(t, dir)
}

func TestNewFilesystemTopicDirectoryRequiresALogDir(t *testing.T) {
	_, err := NewFilesystemTopicDirectory(nil)
	assert.Error(t, err)
}

func TestSingleNodeClusterEnsureTopicIsIdempotent(t *testing.T) {
	base := t.TempDir()
	registry := NewRegistry()
	defer registry.Close()
	td, err := NewFilesystemTopicDirectory([]string{base})
	require.NoError(t, err)
	cfg := vlog.NewConfig()
	cluster := NewSingleNodeCluster(registry, td, func(dir string) (*vlog.Partition, error) {
		return vlog.Open(dir, cfg, nil)
	})

	require.NoError(t, cluster.EnsureTopic("orders", 2))
	require.NoError(t, cluster.EnsureTopic("orders", 2))

	assert.True(t, cluster.Owns("orders", 0))
	assert.True(t, cluster.Owns("orders", 1))
	assert.False(t, cluster.Owns("orders", 5))

	topics := cluster.Topics()
	assert.Equal(t, []int32{0, 1}, topics["orders"])
}
