package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
)

const (
	presenceTTLFlag = "presence-ttl"

	presenceKey = "presence_visitors"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   presenceTTLFlag,
			Usage:  "how long a visitor heartbeat counts as active",
			Value:  30 * time.Second,
			EnvVar: "PRESENCE_TTL",
		},
	)
}

// Presence tracks active visitors in a Redis sorted set scored by the last
// heartbeat. Without Redis it degrades to a count of zero.
type Presence struct {
	redis *cs.RedisClient
	ttl   time.Duration
}

func New(c *cli.Context, redis *cs.RedisClient) *Presence {
	return &Presence{
		redis: redis,
		ttl:   c.Duration(presenceTTLFlag),
	}
}

func (s *Presence) client() redis.UniversalClient {
	if s.redis == nil {
		return nil
	}
	return s.redis.Get()
}

func (s *Presence) Heartbeat(ctx context.Context, visitorID string) error {
	cl := s.client()
	if cl == nil {
		return nil
	}
	err := cl.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: visitorID,
	}).Err()
	return errors.Wrap(err, "presence heartbeat")
}

func (s *Presence) Count(ctx context.Context) (int64, error) {
	cl := s.client()
	if cl == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.ttl).UnixNano()
	if err := cl.ZRemRangeByScore(ctx, presenceKey, "0", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, errors.Wrap(err, "presence prune")
	}
	n, err := cl.ZCard(ctx, presenceKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "presence count")
	}
	return n, nil
}
