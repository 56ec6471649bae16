package protocol

// MetadataRequest is api_key 3, spec §4.1. An empty Topics list means "all
// topics this node knows about".
type MetadataRequest struct {
	Version int16
	Topics  []string
}

func (r *MetadataRequest) encode(pe packetEncoder) error {
	return pe.putStringArray(r.Topics)
}

func (r *MetadataRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	r.Topics, err = pd.getStringArray()
	return err
}

func (r *MetadataRequest) key() int16     { return ApiKeyMetadata }
func (r *MetadataRequest) version() int16 { return r.Version }
