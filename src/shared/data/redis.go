package data

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const streamSlips = "omikuji.slips"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishSlipEvent appends a slip lifecycle event to the omikuji.slips
// stream. Every event carries a unique event_id so consumers can dedupe
// on replays.
func PublishSlipEvent(ctx context.Context, rdb *redis.Client, event string, fields map[string]interface{}) error {
	values := map[string]interface{}{
		"event":    event,
		"event_id": uuid.NewString(),
		"ts":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		values[k] = v
	}
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamSlips,
		Values: values,
	}).Result()
	return err
}
