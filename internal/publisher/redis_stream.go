package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher publishes import events to a Redis stream
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher creates a publisher writing to stream on an existing client
func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: 1000,
	}
}

// PublishStatsImported appends ev to the stream.
func (rp *RedisPublisher) PublishStatsImported(ctx context.Context, ev StatsImported) error {
	values, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rp.stream,
		MaxLen: rp.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// StreamReader is the part of *redis.Client the Listener reads with.
type StreamReader interface {
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) *redis.XMessageSliceCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
}

// Listener tails the import stream and hands each event to a callback.
type Listener struct {
	client  StreamReader
	stream  string
	block   time.Duration
	backoff time.Duration
	logger  zerolog.Logger
}

// NewListener creates a listener on stream.
func NewListener(client StreamReader, stream string, logger zerolog.Logger) *Listener {
	return &Listener{
		client:  client,
		stream:  stream,
		block:   5 * time.Second,
		backoff: time.Second,
		logger:  logger,
	}
}

// Listen blocks until ctx is cancelled, invoking fn for every event added
// after it started. Reads resume from the last ID seen, so events added
// between reads or during a backoff are still delivered. Callback errors
// are logged, not returned.
func (l *Listener) Listen(ctx context.Context, fn func(context.Context, StatsImported) error) error {
	lastID := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if lastID == "" {
			id, err := l.tailID(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Warn().Err(err).Str("stream", l.stream).Msg("stream tail lookup failed")
				if !l.wait(ctx) {
					return nil
				}
				continue
			}
			lastID = id
		}

		streams, err := l.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{l.stream, lastID},
			Count:   10,
			Block:   l.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn().Err(err).Str("stream", l.stream).Msg("stream read failed")
			if !l.wait(ctx) {
				return nil
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				ev, err := DecodeStatsImported(msg.Values)
				if err != nil {
					l.logger.Warn().Err(err).Str("id", msg.ID).Msg("skipping malformed event")
					continue
				}
				if err := fn(ctx, ev); err != nil {
					l.logger.Error().Err(fmt.Errorf("handle event %s: %w", msg.ID, err)).Msg("event handler failed")
				}
			}
		}
	}
}

// tailID returns the ID of the newest entry, or "0-0" for an empty stream.
func (l *Listener) tailID(ctx context.Context) (string, error) {
	msgs, err := l.client.XRevRangeN(ctx, l.stream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("reading tail of %s: %w", l.stream, err)
	}
	if len(msgs) == 0 {
		return "0-0", nil
	}
	return msgs[0].ID, nil
}

func (l *Listener) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.backoff):
		return true
	}
}
