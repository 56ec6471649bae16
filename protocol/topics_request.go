package protocol

// TopicsRequest is the deployment-chosen API (spec §4.1) returning the
// topic → replica-chain mapping.
type TopicsRequest struct {
	Version int16
	Topics  []string
}

func (r *TopicsRequest) encode(pe packetEncoder) error {
	return pe.putStringArray(r.Topics)
}

func (r *TopicsRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	r.Topics, err = pd.getStringArray()
	return err
}

func (r *TopicsRequest) key() int16     { return ApiKeyTopics }
func (r *TopicsRequest) version() int16 { return r.Version }
