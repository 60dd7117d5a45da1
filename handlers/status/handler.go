package status

import (
	"net/http"
	"runtime"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/cinescope/web-ui/services/portal"
	"github.com/cinescope/web-ui/services/presence"
	"github.com/cinescope/web-ui/services/resmon"
	"github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/vitals"
	"github.com/cinescope/web-ui/services/web"
)

const leakThreshold = 5 * time.Minute

type PortalRow struct {
	ID           string
	Priority     string
	ZIndex       int
	Pinned       bool
	Interactions int
	LastSeen     string
}

type Data struct {
	Uptime    string
	HeapAlloc string
	Routes    []vitals.RouteVitals
	Resources map[resmon.Kind]int
	Leaked    []resmon.Resource
	Portals   []PortalRow
	Visitors  int64
}

type Handler struct {
	tb       template.Builder[*web.Context]
	vitals   *vitals.Vitals
	tracker  *resmon.Tracker
	portals  *portal.Manager
	presence *presence.Presence
	started  time.Time
}

func RegisterHandler(r *gin.Engine, tm *template.Manager[*web.Context], v *vitals.Vitals, tr *resmon.Tracker, pm *portal.Manager, p *presence.Presence) {
	h := &Handler{
		tb:       tm.MustRegisterViews("status/*"),
		vitals:   v,
		tracker:  tr,
		portals:  pm,
		presence: p,
		started:  time.Now(),
	}
	r.GET("/status", h.index)
}

func (s *Handler) index(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.vitals.Prune(24 * time.Hour)

	visitors, err := s.presence.Count(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("presence count failed")
	}

	var rows []PortalRow
	for _, p := range s.portals.Stack() {
		row := PortalRow{
			ID:       p.ID,
			Priority: p.Priority.String(),
			ZIndex:   p.ZIndex,
			Pinned:   p.Pinned,
		}
		if n, last, ok := s.portals.Metrics(p.ID); ok {
			row.Interactions = n
			row.LastSeen = humanize.Time(last)
		}
		rows = append(rows, row)
	}

	data := &Data{
		Uptime:    humanize.Time(s.started),
		HeapAlloc: humanize.Bytes(ms.HeapAlloc),
		Routes:    s.vitals.Snapshot(),
		Resources: s.tracker.Snapshot(),
		Leaked:    s.tracker.Leaked(leakThreshold),
		Portals:   rows,
		Visitors:  visitors,
	}
	s.tb.Build("status/index").HTML(http.StatusOK, web.NewContext(c).WithData(data))
}
