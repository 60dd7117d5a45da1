package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
)

const (
	pageCacheTTLFlag        = "catalog-cache-ttl"
	pageCacheMaxEntriesFlag = "catalog-cache-max-entries"

	pageCacheVersion = 1
	pageCacheIndex   = "movieCache_index"
)

func RegisterPageCacheFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   pageCacheTTLFlag,
			Usage:  "catalog page cache expiration time",
			Value:  30 * time.Minute,
			EnvVar: "CATALOG_CACHE_TTL",
		},
		cli.IntFlag{
			Name:   pageCacheMaxEntriesFlag,
			Usage:  "catalog page cache max entries",
			Value:  96,
			EnvVar: "CATALOG_CACHE_MAX_ENTRIES",
		},
	)
}

// pageEntry is the stored envelope. Entries failing the checksum or version
// check are treated as corrupt and deleted on read.
type pageEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Version   int             `json:"version"`
	Checksum  uint32          `json:"checksum"`
}

// PageCache keeps serialized catalog pages in Redis under
// movieCache_<category>[_page_<n>] keys, bounded by a count budget tracked
// in a sorted-set index.
type PageCache struct {
	redis      *cs.RedisClient
	ttl        time.Duration
	maxEntries int
}

func NewPageCache(c *cli.Context, redis *cs.RedisClient) *PageCache {
	return &PageCache{
		redis:      redis,
		ttl:        c.Duration(pageCacheTTLFlag),
		maxEntries: c.Int(pageCacheMaxEntriesFlag),
	}
}

func (s *PageCache) Key(category string, page int) string {
	if page <= 1 {
		return fmt.Sprintf("movieCache_%s", category)
	}
	return fmt.Sprintf("movieCache_%s_page_%d", category, page)
}

func (s *PageCache) client() redis.UniversalClient {
	if s.redis == nil {
		return nil
	}
	return s.redis.Get()
}

// Get returns the cached payload or a miss. Any corruption (parse failure,
// version or checksum mismatch, stale timestamp) deletes the key.
func (s *PageCache) Get(ctx context.Context, category string, page int) (json.RawMessage, bool) {
	cl := s.client()
	if cl == nil {
		return nil, false
	}
	key := s.Key(category, page)
	raw, err := cl.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("page cache read failed")
		return nil, false
	}
	var entry pageEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.WithField("key", key).Warn("corrupt page cache entry, dropping")
		s.drop(ctx, cl, key)
		return nil, false
	}
	if entry.Version != pageCacheVersion || entry.Checksum != crc32.ChecksumIEEE(entry.Data) {
		log.WithField("key", key).Warn("page cache checksum mismatch, dropping")
		s.drop(ctx, cl, key)
		return nil, false
	}
	if time.Since(time.Unix(entry.Timestamp, 0)) > s.ttl {
		s.drop(ctx, cl, key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores the payload and enforces the entry-count budget, pruning the
// oldest entries first. A failed write triggers one emergency purge and a
// single retry.
func (s *PageCache) Set(ctx context.Context, category string, page int, data json.RawMessage) error {
	cl := s.client()
	if cl == nil {
		return nil
	}
	key := s.Key(category, page)
	entry := pageEntry{
		Data:      data,
		Timestamp: time.Now().Unix(),
		Version:   pageCacheVersion,
		Checksum:  crc32.ChecksumIEEE(data),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal page entry")
	}

	if err := s.write(ctx, cl, key, raw); err != nil {
		s.purgeOldest(ctx, cl, s.maxEntries/4+1)
		if err := s.write(ctx, cl, key, raw); err != nil {
			return errors.Wrap(err, "page cache write failed after purge")
		}
	}

	count, err := cl.ZCard(ctx, pageCacheIndex).Result()
	if err == nil && int(count) > s.maxEntries {
		s.purgeOldest(ctx, cl, int(count)-s.maxEntries)
	}
	return nil
}

func (s *PageCache) write(ctx context.Context, cl redis.UniversalClient, key string, raw []byte) error {
	if err := cl.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return err
	}
	return cl.ZAdd(ctx, pageCacheIndex, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: key,
	}).Err()
}

func (s *PageCache) drop(ctx context.Context, cl redis.UniversalClient, key string) {
	_ = cl.Del(ctx, key).Err()
	_ = cl.ZRem(ctx, pageCacheIndex, key).Err()
}

func (s *PageCache) purgeOldest(ctx context.Context, cl redis.UniversalClient, n int) {
	if n <= 0 {
		return
	}
	keys, err := cl.ZRange(ctx, pageCacheIndex, 0, int64(n-1)).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	_ = cl.Del(ctx, keys...).Err()
	_ = cl.ZRem(ctx, pageCacheIndex, members...).Err()
	log.WithField("purged", len(keys)).Info("page cache purged oldest entries")
}
