package server

import (
	"fmt"
	"sync"
)

// Registry is the process-wide concurrent mapping from (topic, partition)
// to the worker that owns it, per spec §5 "Shared resources" / §9
// "Registry of partitions". A sync.Map is the right tool here: the key
// space is effectively static after warm-up (partitions are created, not
// churned), and reads vastly outnumber writes — exactly sync.Map's
// documented sweet spot, so no third-party concurrent-map library is
// reached for.
type Registry struct {
	workers sync.Map // string -> *worker
}

func NewRegistry() *Registry {
	return &Registry{}
}

func key(topic string, partition int32) string {
	return fmt.Sprintf("%s-%d", topic, partition)
}

// Lookup returns the worker for (topic, partition), if registered.
func (r *Registry) Lookup(topic string, partition int32) (*worker, bool) {
	v, ok := r.workers.Load(key(topic, partition))
	if !ok {
		return nil, false
	}
	return v.(*worker), true
}

// Store registers a worker, removing and stopping any previous occupant
// of the same slot.
func (r *Registry) Store(topic string, partition int32, w *worker) {
	k := key(topic, partition)
	if old, loaded := r.workers.Swap(k, w); loaded {
		old.(*worker).stop()
	}
}

// Remove unregisters and stops the worker for (topic, partition), per
// spec §5's registry lifecycle ("removed at worker exit").
func (r *Registry) Remove(topic string, partition int32) {
	k := key(topic, partition)
	if old, loaded := r.workers.LoadAndDelete(k); loaded {
		old.(*worker).stop()
	}
}

// Close stops every registered worker.
func (r *Registry) Close() error {
	r.workers.Range(func(k, v interface{}) bool {
		v.(*worker).stop()
		r.workers.Delete(k)
		return true
	})
	return nil
}
