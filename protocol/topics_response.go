package protocol

// TopicChain is one topic's replica-chain mapping.
type TopicChain struct {
	ErrorCode KError
	Topic     string
	Chain     []int32
}

func (t *TopicChain) encode(pe packetEncoder) error {
	pe.putInt16(int16(t.ErrorCode))
	if err := pe.putString(t.Topic); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(t.Chain)); err != nil {
		return err
	}
	for _, id := range t.Chain {
		pe.putInt32(id)
	}
	return nil
}

func (t *TopicChain) decode(pd packetDecoder) (err error) {
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
	t.Chain = make([]int32, n)
	for i := range t.Chain {
		if t.Chain[i], err = pd.getInt32(); err != nil {
			return err
		}
	}
	return nil
}

// TopicsResponse answers TopicsRequest with a topic → replica-chain
// mapping.
type TopicsResponse struct {
	Version int16
	Topics  []TopicChain
}

func (r *TopicsResponse) encode(pe packetEncoder) error {
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

func (r *TopicsResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make([]TopicChain, n)
	for i := 0; i < n; i++ {
		if err := r.Topics[i].decode(pd); err != nil {
			return err
		}
	}
	return nil
}

func (r *TopicsResponse) key() int16 { return ApiKeyTopics }
