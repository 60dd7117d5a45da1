package presence

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/cinescope/web-ui/handlers/common"
	"github.com/cinescope/web-ui/services/presence"
)

const streamInterval = 5 * time.Second

type Handler struct {
	presence *presence.Presence
}

func RegisterHandler(r *gin.Engine, p *presence.Presence) {
	h := &Handler{
		presence: p,
	}
	r.POST("/presence/heartbeat", h.heartbeat)
	r.GET("/presence/count", h.count)
	r.GET("/presence/stream", h.stream)
}

func (s *Handler) heartbeat(c *gin.Context) {
	if err := s.presence.Heartbeat(c.Request.Context(), common.Visitor(c)); err != nil {
		log.WithError(err).Warn("heartbeat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "heartbeat failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Handler) count(c *gin.Context) {
	n, err := s.presence.Count(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("presence count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// stream pushes the active visitor count over SSE until the client goes away.
func (s *Handler) stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	t := time.NewTicker(streamInterval)
	defer t.Stop()

	emit := func() bool {
		n, err := s.presence.Count(ctx)
		if err != nil {
			log.WithError(err).Warn("presence count failed")
			return false
		}
		c.SSEvent("count", n)
		c.Writer.Flush()
		return true
	}
	if !emit() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !emit() {
				return
			}
		}
	}
}
