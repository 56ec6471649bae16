package server

import (
	"testing"

	"github.com/fortytw2/leaktest"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlog "github.com/vonnegut/vonnegut/log"
	"github.com/vonnegut/vonnegut/protocol"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, func()) {
	t.Helper()
	dir := t.TempDir()
	registry := NewRegistry()
	topicDir, err := NewFilesystemTopicDirectory([]string{dir})
	require.NoError(t, err)
	cfg := vlog.NewConfig()
	cluster := NewSingleNodeCluster(registry, topicDir, func(d string) (*vlog.Partition, error) {
		return vlog.Open(d, cfg, nil)
	})
	dispatcher := NewDispatcher(registry, cluster, nil, nil)
	return dispatcher, func() { registry.Close() }
}

func TestDispatchProduceAndFetchRoundTrip(t *testing.T) {
	defer leaktest.Check(t)()

	d, cleanup := newTestDispatcher(t)
	defer cleanup()
	require.NoError(t, d.cluster.EnsureTopic("orders", 1))

	recordSet := protocol.EncodeRecords([]protocol.Record{{Payload: []byte("a")}, {Payload: []byte("b")}})
	wire, err := protocol.CompressRecordSet(protocol.CompressionNone, recordSet)
	require.NoError(t, err)

	produceReq := &protocol.ProduceRequest{Acks: -1}
	produceReq.AddRecordSet("orders", 0, wire)

	resp, err := d.Dispatch(&protocol.Request{CorrelationID: 1, Body: produceReq})
	require.NoError(t, err)
	pr := resp.(*protocol.ProduceResponse)
	require.Len(t, pr.TopicData, 1)
	require.Len(t, pr.TopicData[0].PartitionData, 1)
	assert.Equal(t, protocol.ErrNoError, pr.TopicData[0].PartitionData[0].ErrorCode)
	assert.Equal(t, int64(0), pr.TopicData[0].PartitionData[0].Offset)

	fetchReq := &protocol.FetchRequest{}
	fetchReq.AddBlock("orders", 0, 0, 0)
	fresp, err := d.Dispatch(&protocol.Request{CorrelationID: 2, Body: fetchReq})
	require.NoError(t, err)
	fr := fresp.(*protocol.FetchResponse)
	require.Len(t, fr.TopicData, 1)
	pd := fr.TopicData[0].PartitionData[0]
	assert.Equal(t, protocol.ErrNoError, pd.ErrorCode)
	assert.Equal(t, int64(2), pd.HighWaterMark)

	got, err := protocol.DecompressRecordSet(pd.RecordSet)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(got)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", string(records[0].Payload))
	assert.Equal(t, "b", string(records[1].Payload))

	// Produce/fetch traffic must actually be observed by real meters and
	// histograms, not a nil/decorative registry.
	assert.Equal(t, int64(1), metrics.GetOrRegisterMeter("produce-requests-rate-orders", d.metrics).Count())
	assert.Equal(t, int64(1), metrics.GetOrRegisterMeter("fetch-requests-rate-orders", d.metrics).Count())
	assert.Equal(t, int64(1), getOrRegisterHistogram("produce-batch-bytes-orders-0", d.metrics).Count())
	assert.Equal(t, int64(1), getOrRegisterHistogram("fetch-batch-bytes-orders-0", d.metrics).Count())
}

func TestDispatchUnknownTopicReturnsError(t *testing.T) {
	d, cleanup := newTestDispatcher(t)
	defer cleanup()

	fetchReq := &protocol.FetchRequest{}
	fetchReq.AddBlock("missing", 0, 0, 0)
	resp, err := d.Dispatch(&protocol.Request{CorrelationID: 1, Body: fetchReq})
	require.NoError(t, err)
	fr := resp.(*protocol.FetchResponse)
	assert.Equal(t, protocol.ErrUnknownTopicOrPartition, fr.TopicData[0].PartitionData[0].ErrorCode)
}

func TestDispatchFetchOutOfRange(t *testing.T) {
	d, cleanup := newTestDispatcher(t)
	defer cleanup()
	require.NoError(t, d.cluster.EnsureTopic("orders", 1))

	fetchReq := &protocol.FetchRequest{}
	fetchReq.AddBlock("orders", 0, 5, 0)
	resp, err := d.Dispatch(&protocol.Request{CorrelationID: 1, Body: fetchReq})
	require.NoError(t, err)
	fr := resp.(*protocol.FetchResponse)
	assert.Equal(t, protocol.ErrOffsetOutOfRange, fr.TopicData[0].PartitionData[0].ErrorCode)
}

func TestDispatchMetadataAndTopics(t *testing.T) {
	d, cleanup := newTestDispatcher(t)
	defer cleanup()
	require.NoError(t, d.cluster.EnsureTopic("orders", 2))

	resp, err := d.Dispatch(&protocol.Request{CorrelationID: 1, Body: &protocol.MetadataRequest{}})
	require.NoError(t, err)
	mr := resp.(*protocol.MetadataResponse)
	require.Len(t, mr.Topics, 1)
	assert.Equal(t, "orders", mr.Topics[0].Topic)
	assert.Len(t, mr.Topics[0].Partitions, 2)

	tresp, err := d.Dispatch(&protocol.Request{CorrelationID: 2, Body: &protocol.TopicsRequest{Topics: []string{"orders"}}})
	require.NoError(t, err)
	tr := tresp.(*protocol.TopicsResponse)
	require.Len(t, tr.Topics, 1)
	assert.Equal(t, []int32{0, 1}, tr.Topics[0].Chain)
}
