package server

import (
	"context"
	"path/filepath"

	gokitlog "github.com/go-kit/log"
	metrics "github.com/rcrowley/go-metrics"

	vlog "github.com/vonnegut/vonnegut/log"
)

// Server wires the registry, cluster manager, dispatcher, and listener
// together into one runnable process, the way cmd/vonnegutd's main
// constructs it from parsed flags.
type Server struct {
	registry   *Registry
	cluster    ClusterManager
	dispatcher *Dispatcher
	listener   *Listener
}

// New builds a Server. logCfg configures every partition's log.Partition;
// srvCfg configures the listener.
func New(srvCfg *Config, logCfg *vlog.Config, logger gokitlog.Logger) (*Server, error) {
	if logger == nil {
		logger = gokitlog.NewNopLogger()
	}

	topicDir, err := NewFilesystemTopicDirectory(logCfg.LogDirs)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	cluster := NewSingleNodeCluster(registry, topicDir, func(dir string) (*vlog.Partition, error) {
		return vlog.Open(dir, logCfg, gokitlog.With(logger, "dir", filepath.Base(dir)))
	})
	metricRegistry := metrics.NewRegistry()
	dispatcher := NewDispatcher(registry, cluster, logger, metricRegistry)
	listener := NewListener(srvCfg, dispatcher, logger, metricRegistry)

	return &Server{registry: registry, cluster: cluster, dispatcher: dispatcher, listener: listener}, nil
}

// EnsureTopic creates partitions count partitions for topic if they don't
// already exist, spawning their workers (spec §4.5's "ensure_topic").
func (s *Server) EnsureTopic(topic string, partitions int32) error {
	return s.cluster.EnsureTopic(topic, partitions)
}

// ListenAndServe runs the TCP front door until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	return s.listener.ListenAndServe(ctx)
}

// Close stops every partition worker, flushing and closing their files.
func (s *Server) Close() error {
	return s.dispatcher.Close()
}
