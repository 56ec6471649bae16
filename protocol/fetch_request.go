package protocol

// fetchRequestPartitionData is spec §4.1's per-partition fetch ask:
// `{partition:int32, fetch_offset:int64, max_bytes:int32}`.
type fetchRequestPartitionData struct {
	Partition   int32
	FetchOffset int64
	MaxBytes    int32
}

func (p *fetchRequestPartitionData) encode(pe packetEncoder) error {
	pe.putInt32(p.Partition)
	pe.putInt64(p.FetchOffset)
	pe.putInt32(p.MaxBytes)
	return nil
}

func (p *fetchRequestPartitionData) decode(pd packetDecoder) (err error) {
	if p.Partition, err = pd.getInt32(); err != nil {
		return err
	}
	if p.FetchOffset, err = pd.getInt64(); err != nil {
		return err
	}
	if p.MaxBytes, err = pd.getInt32(); err != nil {
		return err
	}
	return nil
}

type fetchRequestTopicData struct {
	Topic         string
	PartitionData []fetchRequestPartitionData
}

func (t *fetchRequestTopicData) encode(pe packetEncoder) error {
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

func (t *fetchRequestTopicData) decode(pd packetDecoder) (err error) {
	if t.Topic, err = pd.getString(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	t.PartitionData = make([]fetchRequestPartitionData, n)
	for i := 0; i < n; i++ {
		if err := t.PartitionData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

// FetchRequest is api_key 1, spec §4.1. ReplicaID is read but ignored per
// spec, matching the teacher's own handling of the always-(-1)-for-clients
// ReplicaID field in its real FetchRequest.
type FetchRequest struct {
	Version   int16
	MaxWaitMs int32
	MinBytes  int32
	TopicData []fetchRequestTopicData
}

func (r *FetchRequest) encode(pe packetEncoder) error {
	pe.putInt32(-1) // replica_id, ignored by the engine per spec §4.1
	pe.putInt32(r.MaxWaitMs)
	pe.putInt32(r.MinBytes)
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

func (r *FetchRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	if _, err = pd.getInt32(); err != nil { // replica_id, ignored
		return err
	}
	if r.MaxWaitMs, err = pd.getInt32(); err != nil {
		return err
	}
	if r.MinBytes, err = pd.getInt32(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.TopicData = make([]fetchRequestTopicData, n)
	for i := 0; i < n; i++ {
		if err := r.TopicData[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *FetchRequest) key() int16     { return ApiKeyFetch }
func (r *FetchRequest) version() int16 { return r.Version }

// AddBlock requests partition's records starting at fetchOffset, the way
// the teacher's FetchRequest.AddBlock builds up a multi-partition fetch.
func (r *FetchRequest) AddBlock(topic string, partition int32, fetchOffset int64, maxBytes int32) {
	for i := range r.TopicData {
		if r.TopicData[i].Topic == topic {
			r.TopicData[i].PartitionData = append(r.TopicData[i].PartitionData, fetchRequestPartitionData{
				Partition: partition, FetchOffset: fetchOffset, MaxBytes: maxBytes,
			})
			return
		}
	}
	r.TopicData = append(r.TopicData, fetchRequestTopicData{
		Topic: topic,
		PartitionData: []fetchRequestPartitionData{
			{Partition: partition, FetchOffset: fetchOffset, MaxBytes: maxBytes},
		},
	})
}
