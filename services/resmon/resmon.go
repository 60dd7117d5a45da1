package resmon

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTimer     Kind = "timer"
	KindListener  Kind = "listener"
	KindContainer Kind = "container"
	KindWorker    Kind = "worker"
)

// Token identifies one acquired resource.
type Token struct {
	id uuid.UUID
}

// Resource is a tracked acquisition that has not been released yet.
type Resource struct {
	Kind       Kind
	Label      string
	AcquiredAt time.Time
}

// Tracker is an explicit resource registration API: long-lived owners
// acquire a token per timer/listener/container and release it on teardown.
// Anything held past a threshold shows up in the leak report.
type Tracker struct {
	mux       sync.Mutex
	resources map[uuid.UUID]*Resource
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		resources: map[uuid.UUID]*Resource{},
		now:       time.Now,
	}
}

func (s *Tracker) Acquire(kind Kind, label string) Token {
	t := Token{id: uuid.New()}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.resources[t.id] = &Resource{
		Kind:       kind,
		Label:      label,
		AcquiredAt: s.now(),
	}
	return t
}

func (s *Tracker) Release(t Token) {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.resources, t.id)
}

// Leaked reports resources held longer than olderThan, oldest first.
func (s *Tracker) Leaked(olderThan time.Duration) []Resource {
	now := s.now()
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []Resource
	for _, r := range s.resources {
		if now.Sub(r.AcquiredAt) > olderThan {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AcquiredAt.Before(out[j].AcquiredAt)
	})
	return out
}

// Snapshot returns live resource counts by kind.
func (s *Tracker) Snapshot() map[Kind]int {
	s.mux.Lock()
	defer s.mux.Unlock()
	out := map[Kind]int{}
	for _, r := range s.resources {
		out[r.Kind]++
	}
	return out
}

func (s *Tracker) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.resources)
}
