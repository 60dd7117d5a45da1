package movie

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	services "github.com/webtor-io/common-services"
	"golang.org/x/sync/errgroup"

	"github.com/cinescope/web-ui/handlers/common"
	"github.com/cinescope/web-ui/models"
	"github.com/cinescope/web-ui/services/catalog"
	"github.com/cinescope/web-ui/services/flow"
	"github.com/cinescope/web-ui/services/portal"
	"github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/tmdb"
	"github.com/cinescope/web-ui/services/web"
)

const maxCast = 12

type Data struct {
	Details     *tmdb.Details
	Cast        []tmdb.CastMember
	Trailer     *tmdb.Video
	Similar     []tmdb.Item
	InWatchlist bool
	OverlayID   string
	Stack       []*portal.Portal
}

type Handler struct {
	tb      template.Builder[*web.Context]
	catalog *catalog.Catalog
	portals *portal.Manager
	flows   *flow.Registry
	pg      *services.PG
}

func RegisterHandler(r *gin.Engine, tm *template.Manager[*web.Context], cat *catalog.Catalog, pm *portal.Manager, fr *flow.Registry, pg *services.PG) {
	h := &Handler{
		tb:      tm.MustRegisterViews("movie/*"),
		catalog: cat,
		portals: pm,
		flows:   fr,
		pg:      pg,
	}
	r.GET("/movie/:id", h.details(tmdb.MediaTypeMovie))
	r.GET("/tv/:id", h.details(tmdb.MediaTypeTV))
	r.POST("/overlay/:id/open", h.open)
	r.POST("/overlay/:id/action/:action", h.action)
	r.GET("/overlay/:id", h.state)
}

func OverlayID(mediaType tmdb.MediaType, id int64) string {
	return fmt.Sprintf("overlay-%s-%d", mediaType, id)
}

func (s *Handler) details(mediaType tmdb.MediaType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			s.tb.Build("movie/details").HTML(http.StatusBadRequest, web.NewContext(c).WithErr(errors.New("bad id")))
			return
		}
		ctx := c.Request.Context()
		data := &Data{OverlayID: OverlayID(mediaType, id)}

		d, err := s.catalog.Details(ctx, mediaType, id)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, tmdb.ErrNotFound) {
				code = http.StatusNotFound
			}
			s.tb.Build("movie/details").HTML(code, web.NewContext(c).WithErr(err))
			return
		}
		data.Details = d

		// the page survives without any of these sections
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			cr, err := s.catalog.Credits(gctx, mediaType, id)
			if err != nil {
				log.WithError(err).Warn("credits unavailable")
				return nil
			}
			cast := cr.Cast
			if len(cast) > maxCast {
				cast = cast[:maxCast]
			}
			data.Cast = cast
			return nil
		})
		g.Go(func() error {
			vs, err := s.catalog.Videos(gctx, mediaType, id)
			if err != nil {
				log.WithError(err).Warn("videos unavailable")
				return nil
			}
			data.Trailer = pickTrailer(vs)
			return nil
		})
		g.Go(func() error {
			p, err := s.catalog.Similar(gctx, mediaType, id, 1)
			if err != nil {
				log.WithError(err).Warn("similar titles unavailable")
				return nil
			}
			data.Similar = p.Items
			return nil
		})
		_ = g.Wait()

		if db := s.pg.Get(); db != nil {
			has, err := models.HasWatchlistItem(ctx, db, common.Visitor(c), string(mediaType), id)
			if err != nil {
				log.WithError(err).Warn("watchlist lookup failed")
			}
			data.InWatchlist = has
		}
		data.Stack = s.portals.Stack()

		s.tb.Build("movie/details").HTML(http.StatusOK, web.NewContext(c).WithData(data))
	}
}

func (s *Handler) open(c *gin.Context) {
	id := c.Param("id")
	m := s.flows.Get(id)
	if err := m.Dispatch(flow.ActionOpen); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	p := s.portals.Create(id, portal.Modal())
	s.portals.BringToFront(id)
	c.JSON(http.StatusOK, gin.H{
		"state":  m.State(),
		"zIndex": p.ZIndex,
	})
}

func (s *Handler) action(c *gin.Context) {
	id := c.Param("id")
	a, err := flow.ParseAction(c.Param("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, ok := s.flows.Peek(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown overlay"})
		return
	}
	if err := m.Dispatch(a); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.portals.Touch(id)
	if m.State() == flow.StateClosed {
		s.portals.Remove(id)
		s.flows.Drop(id)
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

func (s *Handler) state(c *gin.Context) {
	id := c.Param("id")
	m, ok := s.flows.Peek(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown overlay"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   m.State(),
		"history": m.History(),
	})
}

// pickTrailer prefers an official YouTube trailer, then any YouTube video.
func pickTrailer(vs []tmdb.Video) *tmdb.Video {
	var fallback *tmdb.Video
	for i := range vs {
		v := &vs[i]
		if v.Site != "YouTube" {
			continue
		}
		if v.Type == "Trailer" && v.Official {
			return v
		}
		if fallback == nil {
			fallback = v
		}
	}
	return fallback
}
