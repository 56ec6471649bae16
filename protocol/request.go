package protocol

import "github.com/rcrowley/go-metrics"

// requestBody is the interface every request type (ProduceRequest,
// FetchRequest, MetadataRequest, TopicsRequest) satisfies, mirroring the
// teacher's protocolBody split between the common Request envelope and the
// api-specific body.
type requestBody interface {
	encode(pe packetEncoder) error
	decode(pd packetDecoder, version int16) error
	key() int16
	version() int16
}

// Request is the common envelope spec §4.1 puts in front of every request
// body: `{api_key:int16, api_version:int16, correlation_id:int32,
// client_id:string16}` followed by the body.
type Request struct {
	CorrelationID int32
	ClientID      string
	Body          requestBody
}

func (r *Request) encode(pe packetEncoder) error {
	pe.putInt16(r.Body.key())
	pe.putInt16(r.Body.version())
	pe.putInt32(r.CorrelationID)
	if err := pe.putString(r.ClientID); err != nil {
		return err
	}
	return r.Body.encode(pe)
}

func (r *Request) decode(pd packetDecoder) (err error) {
	apiKey, err := pd.getInt16()
	if err != nil {
		return err
	}
	apiVersion, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.CorrelationID, err = pd.getInt32()
	if err != nil {
		return err
	}
	r.ClientID, err = pd.getString()
	if err != nil {
		return err
	}
	r.Body = allocateBody(apiKey, apiVersion)
	if r.Body == nil {
		return ErrUnknownApiKey
	}
	return r.Body.decode(pd, apiVersion)
}

// Encode serializes the whole request (without the outer frame length
// prefix; see EncodeFrame/ParseFrame for that).
func Encode(r *Request, registry metrics.Registry) ([]byte, error) {
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

// DecodeRequest decodes a request payload (the bytes after the outer frame
// length prefix has already been stripped by ParseFrame).
func DecodeRequest(payload []byte) (*Request, int16, error) {
	req := &Request{}
	decoder := realDecoder{raw: payload}
	if err := req.decode(&decoder); err != nil {
		return nil, 0, err
	}
	return req, req.Body.key(), nil
}

func allocateBody(key, version int16) requestBody {
	switch key {
	case ApiKeyProduce:
		return &ProduceRequest{Version: version}
	case ApiKeyFetch:
		return &FetchRequest{Version: version}
	case ApiKeyMetadata:
		return &MetadataRequest{Version: version}
	case ApiKeyTopics:
		return &TopicsRequest{Version: version}
	default:
		return nil
	}
}

// CorrelationTracker lets a client that multiplexes concurrent in-flight
// requests over one connection route response decoding: it remembers which
// api_key a given correlation_id was sent under, and hands out the next
// correlation_id modulo 2^31, per spec §4.1.
type CorrelationTracker struct {
	next    int32
	pending map[int32]int16
}

func NewCorrelationTracker() *CorrelationTracker {
	return &CorrelationTracker{pending: make(map[int32]int16)}
}

// Next allocates a correlation ID for apiKey and remembers it until Take is
// called with the same ID.
func (c *CorrelationTracker) Next(apiKey int16) int32 {
	id := c.next
	c.next = (c.next + 1) & 0x7fffffff
	c.pending[id] = apiKey
	return id
}

// Take looks up and forgets the api_key registered for correlationID, used
// when the matching response frame arrives.
func (c *CorrelationTracker) Take(correlationID int32) (int16, bool) {
	key, ok := c.pending[correlationID]
	if ok {
		delete(c.pending, correlationID)
	}
	return key, ok
}
