package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/janus/internal/pipeline"
)

const (
	// ProcessedStream carries a summary for every stored game
	ProcessedStream = "games.pbp.hockey_nhl"
	// SkippedStream carries a record for every skipped game
	SkippedStream   = "games.skipped.hockey_nhl"

	streamMaxLen = 10000
)

// RedisStreamPublisher publishes pipeline outcomes to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// SkipRecord describes a game the pipeline could not process
type SkipRecord struct {
	Source string              `json:"source"`
	Reason pipeline.SkipReason `json:"reason"`
	Error  string              `json:"error"`
}

// PublishGameProcessed publishes a processed game's summary
func (p *RedisStreamPublisher) PublishGameProcessed(ctx context.Context, summary pipeline.Summary) error {
	return p.publish(ctx, ProcessedStream, summary)
}

// PublishGameSkipped publishes a skipped game
func (p *RedisStreamPublisher) PublishGameSkipped(ctx context.Context, rec SkipRecord) error {
	return p.publish(ctx, SkippedStream, rec)
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
