package protocol

import "github.com/rcrowley/go-metrics"

// produceRequestPartitionData is one partition's record_set within a
// ProduceRequest, spec §4.1: `{partition:int32, record_set_size:int32,
// record_set:bytes}`.
type produceRequestPartitionData struct {
	Partition int32
	RecordSet []byte
}

func (p *produceRequestPartitionData) encode(pe packetEncoder) error {
	pe.putInt32(p.Partition)
	pe.putInt32(int32(len(p.RecordSet)))
	return pe.putBytes(p.RecordSet)
}

func (p *produceRequestPartitionData) decode(pd packetDecoder) (err error) {
	if p.Partition, err = pd.getInt32(); err != nil {
		return err
	}
	size, err := pd.getInt32()
	if err != nil {
		return err
	}
	if p.RecordSet, err = pd.getBytes(); err != nil {
		return err
	}
	if int(size) != len(p.RecordSet) {
		return ErrCorruptMessage
	}
	return nil
}

type produceRequestTopicData struct {
	Topic         string
	PartitionData []produceRequestPartitionData
}

func (t *produceRequestTopicData) encode(pe packetEncoder) error {
	if err := pe.putString(t.Topic); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(t.PartitionData)); err != nil {
		return err
	}
	for i := range t.PartitionData {
		if err := t.PartitionData[i].encode(pe); err != nil {
			return err
		}
	}
	return nil
}

func (t *produceRequestTopicData) decode(pd packetDecoder) (err error) {
	if t.Topic, err = pd.getString(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	t.PartitionData = make([]produceRequestPartitionData, n)
	for i := 0; i < n; i++ {
		if err := t.PartitionData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

// ProduceRequest is api_key 0, spec §4.1.
type ProduceRequest struct {
	Version   int16
	Acks      int16
	Timeout   int32
	TopicData []produceRequestTopicData
}

func (r *ProduceRequest) encode(pe packetEncoder) error {
	metricRegistry := pe.metricRegistry()

	pe.putInt16(r.Acks)
	pe.putInt32(r.Timeout)
	if err := pe.putArrayLength(len(r.TopicData)); err != nil {
		return err
	}
	for i := range r.TopicData {
		if err := r.TopicData[i].encode(pe); err != nil {
			return err
		}
		if metricRegistry != nil {
			getOrRegisterTopicMeter("produce-requests-rate", r.TopicData[i].Topic, metricRegistry).Mark(1)
		}
	}
	return nil
}

func (r *ProduceRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	if r.Acks, err = pd.getInt16(); err != nil {
		return err
	}
	if r.Timeout, err = pd.getInt32(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.TopicData = make([]produceRequestTopicData, n)
	for i := 0; i < n; i++ {
		if err := r.TopicData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProduceRequest) key() int16     { return ApiKeyProduce }
func (r *ProduceRequest) version() int16 { return r.Version }

// AddRecordSet attaches a raw (already record-framed, per spec §3)
// record_set to topic/partition, the way the teacher's AddMessage /
// AddSet build up a ProduceRequest before sending it.
func (r *ProduceRequest) AddRecordSet(topic string, partition int32, recordSet []byte) {
	for i := range r.TopicData {
		if r.TopicData[i].Topic == topic {
			r.TopicData[i].PartitionData = append(r.TopicData[i].PartitionData, produceRequestPartitionData{
				Partition: partition,
				RecordSet: recordSet,
			})
			return
		}
	}
	r.TopicData = append(r.TopicData, produceRequestTopicData{
		Topic: topic,
		PartitionData: []produceRequestPartitionData{
			{Partition: partition, RecordSet: recordSet},
		},
	})
}

func getOrRegisterTopicMeter(name, topic string, registry metrics.Registry) metrics.Meter {
	return metrics.GetOrRegisterMeter(name+"-"+topic, registry)
}
