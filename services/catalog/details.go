package catalog

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	detailsCacheTTLFlag        = "details-cache-ttl"
	detailsCacheMaxEntriesFlag = "details-cache-max-entries"
	detailsCacheMaxBytesFlag   = "details-cache-max-bytes"
)

func RegisterDetailsCacheFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   detailsCacheTTLFlag,
			Usage:  "details cache entry ttl",
			Value:  10 * time.Minute,
			EnvVar: "DETAILS_CACHE_TTL",
		},
		cli.IntFlag{
			Name:   detailsCacheMaxEntriesFlag,
			Usage:  "details cache max entries",
			Value:  128,
			EnvVar: "DETAILS_CACHE_MAX_ENTRIES",
		},
		cli.IntFlag{
			Name:   detailsCacheMaxBytesFlag,
			Usage:  "details cache approximate byte budget",
			Value:  4 << 20,
			EnvVar: "DETAILS_CACHE_MAX_BYTES",
		},
	)
}

type detailsEntry struct {
	key     string
	data    []byte
	size    int
	addedAt time.Time
}

// DetailsCache is an in-memory LRU with a TTL and both count and approximate
// byte budgets. Values are stored serialized, so Get always returns an
// independent copy of what was Set.
type DetailsCache struct {
	mux        sync.Mutex
	entries    map[string]*list.Element
	ll         *list.List
	ttl        time.Duration
	maxEntries int
	maxBytes   int
	curBytes   int
	now        func() time.Time
}

func NewDetailsCache(c *cli.Context) *DetailsCache {
	return newDetailsCache(c.Duration(detailsCacheTTLFlag), c.Int(detailsCacheMaxEntriesFlag), c.Int(detailsCacheMaxBytesFlag))
}

func newDetailsCache(ttl time.Duration, maxEntries, maxBytes int) *DetailsCache {
	return &DetailsCache{
		entries:    map[string]*list.Element{},
		ll:         list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

func (s *DetailsCache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal details entry")
	}
	s.mux.Lock()
	defer s.mux.Unlock()

	if el, ok := s.entries[key]; ok {
		old := el.Value.(*detailsEntry)
		s.curBytes -= old.size
		s.ll.Remove(el)
		delete(s.entries, key)
	}

	entry := &detailsEntry{
		key:     key,
		data:    data,
		size:    len(data) + len(key),
		addedAt: s.now(),
	}
	el := s.ll.PushFront(entry)
	s.entries[key] = el
	s.curBytes += entry.size

	s.evictLocked()
	return nil
}

func (s *DetailsCache) Get(key string, dest any) bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	entry := el.Value.(*detailsEntry)
	if s.now().Sub(entry.addedAt) > s.ttl {
		s.removeLocked(el)
		return false
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		// corrupt entry, drop it
		s.removeLocked(el)
		return false
	}
	s.ll.MoveToFront(el)
	return true
}

func (s *DetailsCache) Drop(key string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if el, ok := s.entries[key]; ok {
		s.removeLocked(el)
	}
}

func (s *DetailsCache) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.ll.Len()
}

func (s *DetailsCache) Bytes() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.curBytes
}

func (s *DetailsCache) evictLocked() {
	for s.ll.Len() > s.maxEntries || s.curBytes > s.maxBytes {
		el := s.ll.Back()
		if el == nil {
			return
		}
		s.removeLocked(el)
	}
}

func (s *DetailsCache) removeLocked(el *list.Element) {
	entry := el.Value.(*detailsEntry)
	s.ll.Remove(el)
	delete(s.entries, entry.key)
	s.curBytes -= entry.size
}
