package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/courtvision/internal/engine"
)

// SnapshotStream is the stream trend snapshots are appended to
const SnapshotStream = "trends.snapshot.basketball_nba"

// defaultMaxLen bounds the stream; trimming is approximate
const defaultMaxLen = 500

// streamAdder is the subset of *redis.Client the publisher uses
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher publishes trend snapshots to a Redis stream
type RedisStreamPublisher struct {
	client streamAdder
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return newPublisher(client)
}

func newPublisher(client streamAdder) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: SnapshotStream,
		maxLen: defaultMaxLen,
		now:    time.Now,
	}
}

// PublishSnapshot appends the snapshot and returns the stream entry ID
func (p *RedisStreamPublisher) PublishSnapshot(ctx context.Context, snap engine.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"season":    snap.Season,
			"records":   len(snap.Trends),
			"degraded":  len(snap.Unavailable) > 0,
			"data":      string(data),
			"timestamp": p.now().Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish snapshot to %s: %w", p.stream, err)
	}
	return id, nil
}
