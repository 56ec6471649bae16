package server

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/go-resiliency/breaker"
	"github.com/eapache/queue"

	vlog "github.com/vonnegut/vonnegut/log"
	"github.com/vonnegut/vonnegut/protocol"
)

type job struct {
	run  func(p *vlog.Partition) (interface{}, error)
	done chan result
}

type result struct {
	value interface{}
	err   error
}

// worker is the single logical writer for one partition (spec §5
// "Scheduling model"): every request submitted to it runs to completion,
// in FIFO arrival order, before the next one starts. Submissions queue up
// in an eapache/queue.Queue rather than blocking the submitter directly
// on a bounded channel, so a slow append never backs up the dispatcher's
// own goroutine scheduling.
type worker struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   *queue.Queue
	closed    bool
	closeOnce sync.Once

	partition *vlog.Partition
	breaker   *breaker.Breaker
}

func newWorker(p *vlog.Partition) *worker {
	w := &worker{
		pending:   queue.New(),
		partition: p,
		breaker:   breaker.New(3, 1, 10*time.Second),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// submit enqueues run to execute against the partition on the worker's
// single goroutine and blocks for its result (spec §5: "an append call
// completes before the next request is serviced").
func (w *worker) submit(run func(p *vlog.Partition) (interface{}, error)) (interface{}, error) {
	j := &job{run: run, done: make(chan result, 1)}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, vlog.ErrClosed
	}
	w.pending.Add(j)
	w.cond.Signal()
	w.mu.Unlock()

	r := <-j.done
	return r.value, r.err
}

func (w *worker) loop() {
	for {
		w.mu.Lock()
		for w.pending.Length() == 0 && !w.closed {
			w.cond.Wait()
		}
		if w.pending.Length() == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		j := w.pending.Peek().(*job)
		w.pending.Remove()
		w.mu.Unlock()

		value, err := w.execute(j.run)
		j.done <- result{value: value, err: err}
	}
}

// isExpectedBusinessError reports whether err is a normal, spec-expected
// per-request outcome (an out-of-range fetch offset, an empty produce
// batch, a malformed client-supplied record set) rather than a fatal
// writer failure. Per spec §7, these are embedded in the per-partition
// response slot and must never affect any other request on the
// partition — in particular they must not count against the breaker
// below, or a consumer repeatedly fetching past the end of the log would
// trip it and lock out unrelated Produce calls.
func isExpectedBusinessError(err error) bool {
	return errors.Is(err, vlog.ErrEmptyBatch) ||
		errors.Is(err, vlog.ErrOffsetOutOfRange) ||
		errors.Is(err, protocol.ErrCorruptRecordSet)
}

// execute runs run against the partition through a circuit breaker. Only
// a fatal write failure (spec §4.3 "Failure semantics") trips the
// breaker and short-circuits subsequent submissions with ErrBreakerOpen
// for its cooldown window, standing in for the source's "partition
// restarts and recovery re-runs" supervisor behavior (spec §9) —
// Partition has no torn in-memory state to discard, since every append
// either completes and is durable or fails before mutating `id`. Expected
// business errors are reported back to the caller but never handed to
// the breaker as a failure.
func (w *worker) execute(run func(p *vlog.Partition) (interface{}, error)) (interface{}, error) {
	var value interface{}
	var callErr error
	breakerErr := w.breaker.Run(func() error {
		var err error
		value, err = run(w.partition)
		callErr = err
		if isExpectedBusinessError(err) {
			return nil
		}
		return err
	})
	if breakerErr == breaker.ErrBreakerOpen {
		return nil, breakerErr
	}
	return value, callErr
}

func (w *worker) stop() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.cond.Broadcast()
		w.mu.Unlock()
		w.partition.Close()
	})
}
