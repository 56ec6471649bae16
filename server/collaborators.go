// Package server wires the protocol codec and the log engine together:
// it owns the partition registry, the per-partition workers, the request
// dispatcher, and the TCP listener. Everything in this file is one of the
// collaborator interfaces spec §6 treats as external to the engine core —
// the log and protocol packages never import server.
package server

import (
	"fmt"
	"os"
	"path/filepath"

	vlog "github.com/vonnegut/vonnegut/log"
)

// TopicDirectory resolves a (topic, partition) pair to the directory its
// segments live in, creating it on first use (spec §6 "Topic directory").
type TopicDirectory interface {
	Dir(topic string, partition int32) (string, error)
}

// filesystemTopicDirectory is the default TopicDirectory: one directory
// per (topic, partition) under the first configured log_dir, named
// "<topic>-<partition>" per spec §2/§6.
type filesystemTopicDirectory struct {
	logDirs []string
}

// NewFilesystemTopicDirectory returns a TopicDirectory rooted at the first
// of logDirs (spec §6: "log_dirs ... one is selected per partition" — this
// implementation always picks the first, leaving multi-disk placement
// policy as a documented simplification).
func NewFilesystemTopicDirectory(logDirs []string) (TopicDirectory, error) {
	if len(logDirs) == 0 {
		return nil, fmt.Errorf("server: at least one log_dir is required")
	}
	return &filesystemTopicDirectory{logDirs: logDirs}, nil
}

func (f *filesystemTopicDirectory) Dir(topic string, partition int32) (string, error) {
	dir := filepath.Join(f.logDirs[0], fmt.Sprintf("%s-%d", topic, partition))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ClusterManager answers metadata/topics queries and decides local
// ownership of a (topic, partition) — spec §6 "Cluster manager". It is
// explicitly out of scope for the engine (spec §1); this package only
// needs the subset of its answers the dispatcher consults to decide
// between servicing a request locally and replying NotLeaderForPartition.
type ClusterManager interface {
	// Owns reports whether this node is the leader for (topic, partition).
	Owns(topic string, partition int32) bool

	// EnsureTopic may create the partition and spawn its worker when a
	// metadata/ensure_topic request names a topic that doesn't exist yet
	// (spec §4.5). It returns the first error met while creating a
	// partition, or nil once all of them exist locally.
	EnsureTopic(topic string, partitions int32) error

	// Topics lists all topics this node knows about, with their replica
	// chains, for the Metadata/Topics wire responses (spec §4.1). The
	// chain layout itself is opaque to the engine; a single-node
	// implementation reports itself as the sole chain member.
	Topics() map[string][]int32
}

// singleNodeCluster is the simplest possible ClusterManager: every
// partition this node has a registered worker for, it owns; there is no
// replication, so every topic's chain is just this node (spec Non-goals
// explicitly exclude replication and leader election).
type singleNodeCluster struct {
	registry *Registry
	dir      TopicDirectory
	newLog   func(dir string) (*vlog.Partition, error)
	chains   map[string][]int32
}

// NewSingleNodeCluster builds a ClusterManager with no replication: it
// owns every partition it is asked to ensure, and reports a one-node
// chain for every topic it has created partitions for.
func NewSingleNodeCluster(registry *Registry, dir TopicDirectory, newLog func(dir string) (*vlog.Partition, error)) ClusterManager {
	return &singleNodeCluster{registry: registry, dir: dir, newLog: newLog, chains: make(map[string][]int32)}
}

func (c *singleNodeCluster) Owns(topic string, partition int32) bool {
	_, ok := c.registry.Lookup(topic, partition)
	return ok
}

func (c *singleNodeCluster) EnsureTopic(topic string, partitions int32) error {
	chain := make([]int32, 0, partitions)
	for p := int32(0); p < partitions; p++ {
		if _, ok := c.registry.Lookup(topic, p); ok {
			chain = append(chain, p)
			continue
		}
		dir, err := c.dir.Dir(topic, p)
		if err != nil {
			return err
		}
		partitionLog, err := c.newLog(dir)
		if err != nil {
			return err
		}
		c.registry.Store(topic, p, newWorker(partitionLog))
		chain = append(chain, p)
	}
	c.chains[topic] = chain
	return nil
}

func (c *singleNodeCluster) Topics() map[string][]int32 {
	out := make(map[string][]int32, len(c.chains))
	for topic, chain := range c.chains {
		cp := make([]int32, len(chain))
		copy(cp, chain)
		out[topic] = cp
	}
	return out
}
