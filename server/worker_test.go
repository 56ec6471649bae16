package server

import (
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlog "github.com/vonnegut/vonnegut/log"
)

func TestWorkerServicesRequestsInFIFOOrder(t *testing.T) {
	defer leaktest.Check(t)()

	w := newTestWorker(t)
	defer w.stop()

	// Keep the worker busy so every later submission queues up behind this
	// one, then enqueue them one at a time so their arrival order is known.
	started := make(chan struct{})
	gate := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
			close(started)
			<-gate
			return nil, nil
		})
		assert.NoError(t, err)
	}()
	<-started

	var mu sync.Mutex
	var order []int
	want := make([]int, 20)
	for i := 0; i < 20; i++ {
		i := i
		want[i] = i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil, nil
			})
			assert.NoError(t, err)
		}()
		require.Eventually(t, func() bool {
			w.mu.Lock()
			defer w.mu.Unlock()
			return w.pending.Length() == i+1
		}, 5*time.Second, time.Millisecond)
	}
	close(gate)
	wg.Wait()
	assert.Len(t, order, 20)
	assert.Equal(t, want, order)
}

func TestWorkerStopRejectsFurtherSubmits(t *testing.T) {
	defer leaktest.Check(t)()

	w := newTestWorker(t)
	w.stop()

	_, err := w.submit(func(p *vlog.Partition) (interface{}, error) { return nil, nil })
	require.ErrorIs(t, err, vlog.ErrClosed)

	// stop must be safe to call more than once (Registry.Store/Remove
	// races are both allowed to call it on the same worker).
	w.stop()
}

func TestWorkerAppendAndFetchThroughQueue(t *testing.T) {
	defer leaktest.Check(t)()

	w := newTestWorker(t)
	defer w.stop()

	result, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
		first, _, err := p.Append([][]byte{[]byte("x")})
		return first, err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)

	result, err = w.submit(func(p *vlog.Partition) (interface{}, error) {
		return p.Fetch(0, 0)
	})
	require.NoError(t, err)
	fr := result.(vlog.FetchResult)
	assert.Equal(t, int64(1), fr.HighWaterMark)
}

// Repeated out-of-range fetches are a normal outcome of a consumer
// fetching past the end of the log (spec §8), not a fatal writer failure,
// and must never trip the breaker or block unrelated submissions.
func TestWorkerOutOfRangeFetchesNeverTripBreaker(t *testing.T) {
	defer leaktest.Check(t)()

	w := newTestWorker(t)
	defer w.stop()

	for i := 0; i < 10; i++ {
		_, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
			return p.Fetch(5, 0)
		})
		require.ErrorIs(t, err, vlog.ErrOffsetOutOfRange)
	}

	result, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
		first, _, err := p.Append([][]byte{[]byte("x")})
		return first, err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)
}
