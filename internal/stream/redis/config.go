package redis

const (
	DefaultRequestStream = "selection-requests"
	DefaultResultStream  = "selection-results"
	DefaultGroup         = "standards-selector"
)

type RedisStreamConfig struct {
	RedisAddr     string
	RedisPassword string
	Stream        string
	ResultStream  string
	Group         string
	ConsumerName  string
	// IndexBaseURL is the origin the index store falls back to for the remote snapshot.
	IndexBaseURL string
}

func NewRedisStreamConfig(redisAddr string, redisPassword string, stream string, group string, consumerName string) *RedisStreamConfig {
	if stream == "" {
		stream = DefaultRequestStream
	}
	if group == "" {
		group = DefaultGroup
	}
	return &RedisStreamConfig{
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		Stream:        stream,
		ResultStream:  DefaultResultStream,
		Group:         group,
		ConsumerName:  consumerName,
	}
}
