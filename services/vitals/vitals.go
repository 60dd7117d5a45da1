package vitals

import (
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Vitals records per-route request timing, the server-side counterpart of
// client web-vitals. Records go stale and are pruned on the metrics tick.
type Vitals struct {
	mux    sync.Mutex
	routes map[string]*routeStats
	now    func() time.Time
}

type routeStats struct {
	count    int64
	errors   int64
	total    time.Duration
	max      time.Duration
	lastSeen time.Time
}

// RouteVitals is one row of the snapshot.
type RouteVitals struct {
	Route    string
	Count    int64
	Errors   int64
	Avg      time.Duration
	Max      time.Duration
	LastSeen time.Time
}

func New() *Vitals {
	return &Vitals{
		routes: map[string]*routeStats{},
		now:    time.Now,
	}
}

func (s *Vitals) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.record(route, s.now().Sub(start), c.Writer.Status() >= 500)
	}
}

func (s *Vitals) record(route string, d time.Duration, isErr bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	st, ok := s.routes[route]
	if !ok {
		st = &routeStats{}
		s.routes[route] = st
	}
	st.count++
	if isErr {
		st.errors++
	}
	st.total += d
	if d > st.max {
		st.max = d
	}
	st.lastSeen = s.now()
}

// Snapshot returns current route stats, busiest first.
func (s *Vitals) Snapshot() []RouteVitals {
	s.mux.Lock()
	defer s.mux.Unlock()
	out := make([]RouteVitals, 0, len(s.routes))
	for route, st := range s.routes {
		out = append(out, RouteVitals{
			Route:    route,
			Count:    st.count,
			Errors:   st.errors,
			Avg:      time.Duration(int64(st.total) / st.count),
			Max:      st.max,
			LastSeen: st.lastSeen,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Prune drops routes not seen within the window.
func (s *Vitals) Prune(olderThan time.Duration) int {
	now := s.now()
	s.mux.Lock()
	defer s.mux.Unlock()
	pruned := 0
	for route, st := range s.routes {
		if now.Sub(st.lastSeen) > olderThan {
			delete(s.routes, route)
			pruned++
		}
	}
	return pruned
}
