package protocol

// API keys recognized by the codec (spec §4.1).
const (
	ApiKeyProduce  int16 = 0
	ApiKeyFetch    int16 = 1
	ApiKeyMetadata int16 = 3
	// ApiKeyTopics is "chosen by deployment" per spec §4.1; vonnegut fixes
	// it at 9, a key none of the three Kafka-compatible APIs above uses.
	ApiKeyTopics int16 = 9
)
