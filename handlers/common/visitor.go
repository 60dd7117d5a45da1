package common

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var AnyMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodHead, http.MethodOptions, http.MethodDelete,
}

const visitorKey = "visitor_id"

// Visitor returns the stable per-browser id from the session, minting one
// on first sight.
func Visitor(c *gin.Context) string {
	s := sessions.Default(c)
	if v, ok := s.Get(visitorKey).(string); ok && v != "" {
		return v
	}
	v := uuid.NewString()
	s.Set(visitorKey, v)
	if err := s.Save(); err != nil {
		log.WithError(err).Warn("failed to persist visitor session")
	}
	return v
}
