package protocol

// fetchResponsePartitionData is spec §4.1's per-partition fetch outcome:
// `{partition, error_code:int16, high_water_mark:int64,
// record_set_size:int32, record_set:bytes}`.
type fetchResponsePartitionData struct {
	Partition     int32
	ErrorCode     KError
	HighWaterMark int64
	RecordSet     []byte
}

func (p *fetchResponsePartitionData) encode(pe packetEncoder) error {
	pe.putInt32(p.Partition)
	pe.putInt16(int16(p.ErrorCode))
	pe.putInt64(p.HighWaterMark)
	pe.putInt32(int32(len(p.RecordSet)))
	return pe.putBytes(p.RecordSet)
}

func (p *fetchResponsePartitionData) decode(pd packetDecoder) (err error) {
	if p.Partition, err = pd.getInt32(); err != nil {
		return err
	}
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	p.ErrorCode = KError(errCode)
	if p.HighWaterMark, err = pd.getInt64(); err != nil {
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

type fetchResponseTopicData struct {
	Topic         string
	PartitionData []fetchResponsePartitionData
}

func (t *fetchResponseTopicData) encode(pe packetEncoder) error {
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

func (t *fetchResponseTopicData) decode(pd packetDecoder) (err error) {
	if t.Topic, err = pd.getString(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	t.PartitionData = make([]fetchResponsePartitionData, n)
	for i := 0; i < n; i++ {
		if err := t.PartitionData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

// FetchResponse is the reply to a FetchRequest.
type FetchResponse struct {
	Version   int16
	TopicData []fetchResponseTopicData
}

func (r *FetchResponse) encode(pe packetEncoder) error {
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

func (r *FetchResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.TopicData = make([]fetchResponseTopicData, n)
	for i := 0; i < n; i++ {
		if err := r.TopicData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *FetchResponse) key() int16 { return ApiKeyFetch }

// AddRecordSet attaches partition's outcome to the response.
func (r *FetchResponse) AddRecordSet(topic string, partition int32, highWaterMark int64, recordSet []byte, errorCode KError) {
	for i := range r.TopicData {
		if r.TopicData[i].Topic == topic {
			r.TopicData[i].PartitionData = append(r.TopicData[i].PartitionData, fetchResponsePartitionData{
				Partition: partition, ErrorCode: errorCode, HighWaterMark: highWaterMark, RecordSet: recordSet,
			})
			return
		}
	}
	r.TopicData = append(r.TopicData, fetchResponseTopicData{
		Topic: topic,
		PartitionData: []fetchResponsePartitionData{
			{Partition: partition, ErrorCode: errorCode, HighWaterMark: highWaterMark, RecordSet: recordSet},
		},
	})
}
