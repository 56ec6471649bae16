package server

import (
	"fmt"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	metrics "github.com/rcrowley/go-metrics"

	vlog "github.com/vonnegut/vonnegut/log"
	"github.com/vonnegut/vonnegut/protocol"
)

// Dispatcher fans decoded requests out to the owning partition worker and
// assembles per-partition outcomes back into one response, per spec §4.5.
type Dispatcher struct {
	registry *Registry
	cluster  ClusterManager
	logger   gokitlog.Logger
	metrics  metrics.Registry

	// FetchCompression is the codec new fetch responses are wrapped with
	// on the wire (SPEC_FULL §2.1); CompressionNone by default.
	FetchCompression protocol.CompressionCodec
}

// NewDispatcher wires a Dispatcher. metricRegistry is where the per-topic
// request-rate meters and per-partition batch-size histograms below are
// registered (SPEC_FULL §2); pass nil to get a private, process-local
// registry (e.g. in tests that don't care to read it back).
func NewDispatcher(registry *Registry, cluster ClusterManager, logger gokitlog.Logger, metricRegistry metrics.Registry) *Dispatcher {
	if logger == nil {
		logger = gokitlog.NewNopLogger()
	}
	if metricRegistry == nil {
		metricRegistry = metrics.NewRegistry()
	}
	return &Dispatcher{registry: registry, cluster: cluster, logger: logger, metrics: metricRegistry}
}

// getOrRegisterHistogram mirrors the teacher's own metrics helper (an
// exponentially-decaying sample of 1028 values, decay constant 0.015 —
// sarama's standard choice for request-size histograms).
func getOrRegisterHistogram(name string, r metrics.Registry) metrics.Histogram {
	return metrics.GetOrRegisterHistogram(name, r, metrics.NewExpDecaySample(1028, 0.015))
}

// Dispatch routes req to the right handler by api key and returns the
// response body to encode back to the client.
func (d *Dispatcher) Dispatch(req *protocol.Request) (interface{}, error) {
	switch body := req.Body.(type) {
	case *protocol.ProduceRequest:
		return d.dispatchProduce(body), nil
	case *protocol.FetchRequest:
		return d.dispatchFetch(body), nil
	case *protocol.MetadataRequest:
		return d.dispatchMetadata(body), nil
	case *protocol.TopicsRequest:
		return d.dispatchTopics(body), nil
	default:
		return nil, protocol.ErrUnknownApiKey
	}
}

func (d *Dispatcher) dispatchProduce(req *protocol.ProduceRequest) *protocol.ProduceResponse {
	resp := &protocol.ProduceResponse{Version: req.Version}

	for _, topicData := range req.TopicData {
		for _, partitionData := range topicData.PartitionData {
			offset, errCode := d.produceOne(topicData.Topic, partitionData.Partition, partitionData.RecordSet)
			resp.AddTopicPartition(topicData.Topic, partitionData.Partition, offset, errCode)
		}
	}
	return resp
}

func (d *Dispatcher) produceOne(topic string, partition int32, wireRecordSet []byte) (int64, protocol.KError) {
	metrics.GetOrRegisterMeter(fmt.Sprintf("produce-requests-rate-%s", topic), d.metrics).Mark(1)

	w, ok := d.registry.Lookup(topic, partition)
	if !ok {
		return 0, protocol.ErrUnknownTopicOrPartition
	}
	if !d.cluster.Owns(topic, partition) {
		return 0, protocol.ErrNotLeaderForPartition
	}

	raw, err := protocol.DecompressRecordSet(wireRecordSet)
	if err != nil {
		level.Warn(d.logger).Log("msg", "corrupt produce record set", "topic", topic, "partition", partition, "err", err)
		return 0, protocol.ErrCorruptMessage
	}

	result, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
		first, _, err := p.AppendRecordSet(raw)
		return first, err
	})
	if err != nil {
		level.Error(d.logger).Log("msg", "append failed", "topic", topic, "partition", partition, "err", err)
		return 0, protocol.ErrCorruptMessage
	}

	histName := fmt.Sprintf("produce-batch-bytes-%s-%d", topic, partition)
	getOrRegisterHistogram(histName, d.metrics).Update(int64(len(raw)))
	return result.(int64), protocol.ErrNoError
}

func (d *Dispatcher) dispatchFetch(req *protocol.FetchRequest) *protocol.FetchResponse {
	resp := &protocol.FetchResponse{Version: req.Version}

	for _, topicData := range req.TopicData {
		for _, partitionData := range topicData.PartitionData {
			recordSet, hwm, errCode := d.fetchOne(topicData.Topic, partitionData.Partition, partitionData.FetchOffset, partitionData.MaxBytes)
			resp.AddRecordSet(topicData.Topic, partitionData.Partition, hwm, recordSet, errCode)
		}
	}
	return resp
}

func (d *Dispatcher) fetchOne(topic string, partition int32, startOffset int64, maxBytes int32) ([]byte, int64, protocol.KError) {
	metrics.GetOrRegisterMeter(fmt.Sprintf("fetch-requests-rate-%s", topic), d.metrics).Mark(1)

	w, ok := d.registry.Lookup(topic, partition)
	if !ok {
		return nil, 0, protocol.ErrUnknownTopicOrPartition
	}
	if !d.cluster.Owns(topic, partition) {
		return nil, 0, protocol.ErrNotLeaderForPartition
	}

	result, err := w.submit(func(p *vlog.Partition) (interface{}, error) {
		return p.Fetch(startOffset, maxBytes)
	})
	if err != nil {
		if err == vlog.ErrOffsetOutOfRange {
			hwm := int64(0)
			if fr, ok := result.(vlog.FetchResult); ok {
				hwm = fr.HighWaterMark
			}
			return nil, hwm, protocol.ErrOffsetOutOfRange
		}
		level.Error(d.logger).Log("msg", "fetch failed", "topic", topic, "partition", partition, "err", err)
		return nil, 0, protocol.ErrCorruptMessage
	}

	fr := result.(vlog.FetchResult)
	histName := fmt.Sprintf("fetch-batch-bytes-%s-%d", topic, partition)
	getOrRegisterHistogram(histName, d.metrics).Update(int64(len(fr.RecordSet)))

	wireRecordSet, err := protocol.CompressRecordSet(d.FetchCompression, fr.RecordSet)
	if err != nil {
		return nil, fr.HighWaterMark, protocol.ErrCorruptMessage
	}
	return wireRecordSet, fr.HighWaterMark, protocol.ErrNoError
}

func (d *Dispatcher) dispatchMetadata(req *protocol.MetadataRequest) *protocol.MetadataResponse {
	topics := req.Topics
	all := d.cluster.Topics()
	if len(topics) == 0 {
		for topic := range all {
			topics = append(topics, topic)
		}
	}

	resp := &protocol.MetadataResponse{}
	for _, topic := range topics {
		chain, ok := all[topic]
		if !ok {
			resp.Topics = append(resp.Topics, protocol.TopicMetadata{Topic: topic, ErrorCode: protocol.ErrUnknownTopicOrPartition})
			continue
		}
		partitions := make([]protocol.PartitionMetadata, len(chain))
		for i, p := range chain {
			partitions[i] = protocol.PartitionMetadata{Partition: p, Chain: chain}
		}
		resp.Topics = append(resp.Topics, protocol.TopicMetadata{Topic: topic, Partitions: partitions})
	}
	return resp
}

func (d *Dispatcher) dispatchTopics(req *protocol.TopicsRequest) *protocol.TopicsResponse {
	topics := req.Topics
	all := d.cluster.Topics()
	if len(topics) == 0 {
		for topic := range all {
			topics = append(topics, topic)
		}
	}

	resp := &protocol.TopicsResponse{}
	for _, topic := range topics {
		chain, ok := all[topic]
		if !ok {
			resp.Topics = append(resp.Topics, protocol.TopicChain{Topic: topic, ErrorCode: protocol.ErrUnknownTopicOrPartition})
			continue
		}
		resp.Topics = append(resp.Topics, protocol.TopicChain{Topic: topic, Chain: chain})
	}
	return resp
}

// Close shuts down every registered worker, aggregating close errors.
func (d *Dispatcher) Close() error {
	var merr *multierror.Error
	if err := d.registry.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}
