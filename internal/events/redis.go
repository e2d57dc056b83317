package events

import (
	"context"

	"voice-dispatch/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans events out over Redis PUBLISH.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	_, err := utils.PublishJSON(ctx, p.rdb, p.channel, e)
	return err
}
