package stream

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// channelPrefix namespaces job event channels in redis.
const channelPrefix = "research:events:"

// RedisBroadcaster publishes events to a redis pub/sub channel per job, so
// out-of-process consumers (a websocket gateway, a worker UI) can follow
// progress. Publish failures are logged and dropped.
type RedisBroadcaster struct {
	client redis.UniversalClient
}

// NewRedisBroadcaster wraps an existing redis client.
func NewRedisBroadcaster(client redis.UniversalClient) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// Channel returns the pub/sub channel name for a job.
func Channel(jobID string) string {
	return channelPrefix + jobID
}

// Notify publishes the event as JSON to the job's channel.
func (b *RedisBroadcaster) Notify(ctx context.Context, ev Event) {
	ev = stamp(ev)
	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Warn("stream: marshal event", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, Channel(ev.JobID), payload).Err(); err != nil {
		zap.L().Warn("stream: redis publish",
			zap.String("job_id", ev.JobID),
			zap.String("status", ev.Status),
			zap.Error(err),
		)
	}
}
