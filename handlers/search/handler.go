package search

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinescope/web-ui/services/catalog"
	"github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/tmdb"
	"github.com/cinescope/web-ui/services/web"
)

type Data struct {
	Query   string
	Page    *tmdb.Page
	PageNum int
	HasPrev bool
	HasNext bool
}

type Handler struct {
	tb      template.Builder[*web.Context]
	catalog *catalog.Catalog
}

func RegisterHandler(r *gin.Engine, tm *template.Manager[*web.Context], cat *catalog.Catalog) {
	h := &Handler{
		tb:      tm.MustRegisterViews("search/*"),
		catalog: cat,
	}
	r.GET("/search", h.index)
}

func (s *Handler) index(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	pageNum, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	data := &Data{Query: query, PageNum: pageNum}

	if query != "" {
		p, err := s.catalog.Search(c.Request.Context(), query, pageNum)
		if err != nil {
			s.tb.Build("search/index").HTML(http.StatusInternalServerError, web.NewContext(c).WithErr(err))
			return
		}
		data.Page = p
		data.HasPrev = pageNum > 1
		data.HasNext = pageNum < p.TotalPages
	}

	s.tb.Build("search/index").HTML(http.StatusOK, web.NewContext(c).WithData(data))
}
