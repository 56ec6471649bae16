package protocol

// MetadataResponse carries the chain/topic layout the engine's dispatcher
// gets back from the (out-of-scope, spec §6) cluster-manager collaborator.
// Its contents are opaque to the engine proper — the wire shape below is
// only what the codec needs to (de)serialize, not something the partition
// log interprets.
type MetadataResponse struct {
	Version int16
	Brokers []Broker
	Topics  []TopicMetadata
}

// Broker describes one node of the cluster, as reported by the cluster
// manager.
type Broker struct {
	NodeID int32
	Host   string
	Port   int32
}

func (b *Broker) encode(pe packetEncoder) error {
	pe.putInt32(b.NodeID)
	if err := pe.putString(b.Host); err != nil {
		return err
	}
	pe.putInt32(b.Port)
	return nil
}

func (b *Broker) decode(pd packetDecoder) (err error) {
	if b.NodeID, err = pd.getInt32(); err != nil {
		return err
	}
	if b.Host, err = pd.getString(); err != nil {
		return err
	}
	if b.Port, err = pd.getInt32(); err != nil {
		return err
	}
	return nil
}

// PartitionMetadata describes one partition's replica chain.
type PartitionMetadata struct {
	ErrorCode KError
	Partition int32
	// Chain lists node IDs in replica-chain order (leader first), mirroring
	// the source system's chain-replication topology rather than Kafka's
	// ISR set.
	Chain []int32
}

func (p *PartitionMetadata) encode(pe packetEncoder) error {
	pe.putInt16(int16(p.ErrorCode))
	pe.putInt32(p.Partition)
	if err := pe.putArrayLength(len(p.Chain)); err != nil {
		return err
	}
	for _, id := range p.Chain {
		pe.putInt32(id)
	}
	return nil
}

func (p *PartitionMetadata) decode(pd packetDecoder) (err error) {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	p.ErrorCode = KError(errCode)
	if p.Partition, err = pd.getInt32(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	p.Chain = make([]int32, n)
	for i := range p.Chain {
		if p.Chain[i], err = pd.getInt32(); err != nil {
			return err
		}
	}
	return nil
}

// TopicMetadata describes one topic's partitions.
type TopicMetadata struct {
	ErrorCode  KError
	Topic      string
	Partitions []PartitionMetadata
}

func (t *TopicMetadata) encode(pe packetEncoder) error {
	pe.putInt16(int16(t.ErrorCode))
	if err := pe.putString(t.Topic); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(t.Partitions)); err != nil {
		return err
	}
	for i := range t.Partitions {
		if err := t.Partitions[i].encode(pe); err != nil {
			return err
		}
	}
	return nil
}

func (t *TopicMetadata) decode(pd packetDecoder) (err error) {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	t.ErrorCode = KError(errCode)
	if t.Topic, err = pd.getString(); err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	t.Partitions = make([]PartitionMetadata, n)
	for i := 0; i < n; i++ {
		if err := t.Partitions[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *MetadataResponse) encode(pe packetEncoder) error {
	if err := pe.putArrayLength(len(r.Brokers)); err != nil {
		return err
	}
	for i := range r.Brokers {
		if err := r.Brokers[i].encode(pe); err != nil {
			return err
		}
	}
	if err := pe.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for i := range r.Topics {
		if err := r.Topics[i].encode(pe); err != nil {
			return err
		}
	}
	return nil
}

func (r *MetadataResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Brokers = make([]Broker, n)
	for i := 0; i < n; i++ {
		if err := r.Brokers[i].decode(pd); err != nil {
			return err
		}
	}
	n, err = pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make([]TopicMetadata, n)
	for i := 0; i < n; i++ {
		if err := r.Topics[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *MetadataResponse) key() int16 { return ApiKeyMetadata }
