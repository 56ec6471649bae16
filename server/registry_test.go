package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlog "github.com/vonnegut/vonnegut/log"
)

func newTestWorker(t *testing.T) *worker {
	t.Helper()
	p, err := vlog.Open(t.TempDir(), vlog.NewConfig(), nil)
	require.NoError(t, err)
	return newWorker(p)
}

func TestRegistryStoreLookupRemove(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("orders", 0)
	assert.False(t, ok)

	w := newTestWorker(t)
	r.Store("orders", 0, w)

	got, ok := r.Lookup("orders", 0)
	require.True(t, ok)
	assert.Same(t, w, got)

	r.Remove("orders", 0)
	_, ok = r.Lookup("orders", 0)
	assert.False(t, ok)
}

func TestRegistryStoreReplacesAndStopsPrevious(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	first := newTestWorker(t)
	r.Store("orders", 0, first)
	second := newTestWorker(t)
	r.Store("orders", 0, second)

	_, err := first.submit(func(p *vlog.Partition) (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, vlog.ErrClosed)

	got, ok := r.Lookup("orders", 0)
	require.True(t, ok)
	assert.Same(t, second, got)
}
