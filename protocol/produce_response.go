package protocol

// produceResponsePartitionData is spec §4.1's per-partition produce
// outcome: `{partition, error_code:int16, offset:int64}` where offset is
// the offset assigned to the batch's first record.
type produceResponsePartitionData struct {
	Partition int32
	ErrorCode KError
	Offset    int64
}

func (p *produceResponsePartitionData) encode(pe packetEncoder) error {
	pe.putInt32(p.Partition)
	pe.putInt16(int16(p.ErrorCode))
	pe.putInt64(p.Offset)
	return nil
}

func (p *produceResponsePartitionData) decode(pd packetDecoder) (err error) {
	if p.Partition, err = pd.getInt32(); err != nil {
		return err
	}
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	p.ErrorCode = KError(errCode)
	if p.Offset, err = pd.getInt64(); err != nil {
		return err
	}
	return nil
}

type produceResponseTopicData struct {
	Topic         string
	PartitionData []produceResponsePartitionData
}

func (t *produceResponseTopicData) encode(pe packetEncoder) error {
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

func (t *produceResponseTopicData) decode(pd packetDecoder) (err error) {
	if t.Topic, err = pd.getString(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	t.PartitionData = make([]produceResponsePartitionData, n)
	for i := 0; i < n; i++ {
		if err := t.PartitionData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

// ProduceResponse is the reply to a ProduceRequest.
type ProduceResponse struct {
	Version   int16
	TopicData []produceResponseTopicData
}

func (r *ProduceResponse) encode(pe packetEncoder) error {
	if err := pe.putArrayLength(len(r.TopicData)); err != nil {
		return err
	}
	for i := range r.TopicData {
		if err := r.TopicData[i].encode(pe); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProduceResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.TopicData = make([]produceResponseTopicData, n)
	for i := 0; i < n; i++ {
		if err := r.TopicData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProduceResponse) key() int16 { return ApiKeyProduce }

// AddTopicPartition records the outcome for one partition, the way the
// teacher's *Response.AddTopicPartition helpers build up test fixtures.
func (r *ProduceResponse) AddTopicPartition(topic string, partition int32, offset int64, errorCode KError) {
	for i := range r.TopicData {
		if r.TopicData[i].Topic == topic {
			r.TopicData[i].PartitionData = append(r.TopicData[i].PartitionData, produceResponsePartitionData{
				Partition: partition, ErrorCode: errorCode, Offset: offset,
			})
			return
		}
	}
	r.TopicData = append(r.TopicData, produceResponseTopicData{
		Topic: topic,
		PartitionData: []produceResponsePartitionData{
			{Partition: partition, ErrorCode: errorCode, Offset: offset},
		},
	})
}
