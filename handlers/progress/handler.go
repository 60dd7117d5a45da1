package progress

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cinescope/web-ui/services/progress"
)

type percentRequest struct {
	PositionSec float64 `json:"position_sec" binding:"required"`
	DurationSec float64 `json:"duration_sec" binding:"required"`
}

type seasonRequest struct {
	Watched []bool `json:"watched" binding:"required"`
}

type Handler struct {
	calc *progress.Calculator
}

func RegisterHandler(r *gin.Engine, calc *progress.Calculator) {
	h := &Handler{
		calc: calc,
	}
	r.POST("/progress/percent", h.percent)
	r.POST("/progress/season", h.season)
}

func (s *Handler) percent(c *gin.Context) {
	var req percentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.calc.Percent(c.Request.Context(),
		time.Duration(req.PositionSec*float64(time.Second)),
		time.Duration(req.DurationSec*float64(time.Second)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"percent": p})
}

func (s *Handler) season(c *gin.Context) {
	var req seasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := s.calc.Season(c.Request.Context(), req.Watched)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"watched":      sum.Watched,
		"total":        sum.Total,
		"percent":      sum.Percent,
		"next_episode": sum.NextEpisode,
	})
}
