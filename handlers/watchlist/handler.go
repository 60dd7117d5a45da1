package watchlist

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	services "github.com/webtor-io/common-services"

	"github.com/cinescope/web-ui/handlers/common"
	"github.com/cinescope/web-ui/models"
	"github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/tmdb"
	"github.com/cinescope/web-ui/services/web"
)

type Data struct {
	Items []*models.WatchlistItem
}

type Handler struct {
	tb template.Builder[*web.Context]
	pg *services.PG
}

func RegisterHandler(r *gin.Engine, tm *template.Manager[*web.Context], pg *services.PG) {
	h := &Handler{
		tb: tm.MustRegisterViews("watchlist/*"),
		pg: pg,
	}
	r.GET("/watchlist", h.index)
	r.POST("/watchlist", h.add)
	r.POST("/watchlist/remove", h.remove)
}

func (s *Handler) index(c *gin.Context) {
	data := &Data{}
	if db := s.pg.Get(); db != nil {
		items, err := models.GetWatchlistByVisitor(c.Request.Context(), db, common.Visitor(c))
		if err != nil {
			s.tb.Build("watchlist/index").HTML(http.StatusInternalServerError, web.NewContext(c).WithErr(err))
			return
		}
		data.Items = items
	} else {
		log.Warn("watchlist requested but DB is not configured")
	}
	s.tb.Build("watchlist/index").HTML(http.StatusOK, web.NewContext(c).WithData(data))
}

func (s *Handler) add(c *gin.Context) {
	db := s.pg.Get()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "watchlist is not available"})
		return
	}
	mediaType, refID, ok := mediaRef(c)
	if !ok {
		return
	}
	item := &models.WatchlistItem{
		VisitorID: common.Visitor(c),
		MediaType: string(mediaType),
		RefID:     refID,
		Title:     c.PostForm("title"),
	}
	if pp := c.PostForm("poster_path"); pp != "" {
		item.PosterPath = &pp
	}
	if item.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if err := models.AddWatchlistItem(c.Request.Context(), db, item); err != nil {
		log.WithError(err).Error("failed to add watchlist item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": true})
}

func (s *Handler) remove(c *gin.Context) {
	db := s.pg.Get()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "watchlist is not available"})
		return
	}
	mediaType, refID, ok := mediaRef(c)
	if !ok {
		return
	}
	if err := models.RemoveWatchlistItem(c.Request.Context(), db, common.Visitor(c), string(mediaType), refID); err != nil {
		log.WithError(err).Error("failed to remove watchlist item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func mediaRef(c *gin.Context) (tmdb.MediaType, int64, bool) {
	mediaType, err := tmdb.ParseMediaType(c.PostForm("media_type"))
	if err != nil || mediaType == tmdb.MediaTypeAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad media type"})
		return "", 0, false
	}
	refID, err := strconv.ParseInt(c.PostForm("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return "", 0, false
	}
	return mediaType, refID, true
}
