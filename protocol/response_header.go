package protocol

import "github.com/rcrowley/go-metrics"

// responseBody is the interface every response type satisfies.
type responseBody interface {
	encode(pe packetEncoder) error
	decode(pd packetDecoder, version int16) error
	key() int16
}

// Response is the common envelope spec §4.1 puts in front of every
// response body: `{correlation_id:int32}` followed by an api-specific
// body.
type Response struct {
	CorrelationID int32
	Version       int16
	Body          responseBody
}

func (r *Response) encode(pe packetEncoder) error {
	pe.putInt32(r.CorrelationID)
	return r.Body.encode(pe)
}

func (r *Response) decode(pd packetDecoder) (err error) {
	r.CorrelationID, err = pd.getInt32()
	if err != nil {
		return err
	}
	return r.Body.decode(pd, r.Version)
}

// EncodeResponse serializes a response body as the reply to correlationID.
func EncodeResponse(correlationID int32, body responseBody, registry metrics.Registry) ([]byte, error) {
	r := &Response{CorrelationID: correlationID, Body: body}

	var prep prepEncoder
	if err := r.encode(&prep); err != nil {
		return nil, err
	}

	real := realEncoder{raw: make([]byte, prep.length), registry: registry}
	if err := r.encode(&real); err != nil {
		return nil, err
	}
	return real.raw, nil
}

// DecodeResponse decodes a response payload given the api_key/version the
// caller's CorrelationTracker resolved for this correlation_id.
func DecodeResponse(payload []byte, apiKey, apiVersion int16) (*Response, error) {
	body := allocateResponseBody(apiKey, apiVersion)
	if body == nil {
		return nil, ErrUnknownApiKey
	}
	r := &Response{Version: apiVersion, Body: body}
	decoder := realDecoder{raw: payload}
	if err := r.decode(&decoder); err != nil {
		return nil, err
	}
	return r, nil
}

func allocateResponseBody(key, version int16) responseBody {
	switch key {
	case ApiKeyProduce:
		return &ProduceResponse{Version: version}
	case ApiKeyFetch:
		return &FetchResponse{Version: version}
	case ApiKeyMetadata:
		return &MetadataResponse{Version: version}
	case ApiKeyTopics:
		return &TopicsResponse{Version: version}
	default:
		return nil
	}
}
