package home

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cinescope/web-ui/services/catalog"
	"github.com/cinescope/web-ui/services/portal"
	"github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/tmdb"
	"github.com/cinescope/web-ui/services/web"
)

// genreRows are the curated genre carousels below the standard listings.
var genreRows = []struct {
	id   int64
	name string
}{
	{28, "Action"},
	{35, "Comedy"},
	{18, "Drama"},
	{878, "Science Fiction"},
}

type Row struct {
	Title string
	Items []tmdb.Item
}

type Data struct {
	Hero  *tmdb.Item
	Rows  []Row
	Stack []*portal.Portal
}

type Handler struct {
	tb      template.Builder[*web.Context]
	catalog *catalog.Catalog
	portals *portal.Manager
}

func RegisterHandler(r *gin.Engine, tm *template.Manager[*web.Context], cat *catalog.Catalog, pm *portal.Manager) {
	h := &Handler{
		tb:      tm.MustRegisterViews("home/*"),
		catalog: cat,
		portals: pm,
	}
	r.GET("/", h.index)
	r.GET("/genre/:id", h.genre)
}

func (s *Handler) index(c *gin.Context) {
	ctx := c.Request.Context()
	data := &Data{}

	type fetched struct {
		title string
		page  *tmdb.Page
	}
	slots := make([]*fetched, 3+len(genreRows))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.catalog.Trending(gctx, tmdb.MediaTypeAll, 1)
		if err != nil {
			log.WithError(err).Warn("trending row unavailable")
			return nil
		}
		slots[0] = &fetched{title: "Trending This Week", page: p}
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.Popular(gctx, tmdb.MediaTypeMovie, 1)
		if err != nil {
			log.WithError(err).Warn("popular movies row unavailable")
			return nil
		}
		slots[1] = &fetched{title: "Popular Movies", page: p}
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.TopRated(gctx, tmdb.MediaTypeMovie, 1)
		if err != nil {
			log.WithError(err).Warn("top rated row unavailable")
			return nil
		}
		slots[2] = &fetched{title: "Top Rated", page: p}
		return nil
	})
	for i, gr := range genreRows {
		g.Go(func() error {
			p, err := s.catalog.Genre(gctx, tmdb.MediaTypeMovie, gr.id, 1)
			if err != nil {
				log.WithError(err).WithField("genre", gr.name).Warn("genre row unavailable")
				return nil
			}
			slots[3+i] = &fetched{title: gr.name, page: p}
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range slots {
		if f == nil || len(f.page.Items) == 0 {
			continue
		}
		data.Rows = append(data.Rows, Row{Title: f.title, Items: f.page.Items})
	}
	data.Hero = pickHero(data.Rows)

	// the navigation sidebar is a pinned portal shared by every page
	s.portals.Create("nav-sidebar", portal.Sidebar())
	s.portals.Touch("nav-sidebar")
	data.Stack = s.portals.Stack()

	s.tb.Build("home/index").HTML(http.StatusOK, web.NewContext(c).WithData(data))
}

type GenreData struct {
	Name    string
	Genres  []tmdb.Genre
	Page    *tmdb.Page
	PageNum int
	GenreID int64
	HasPrev bool
	HasNext bool
}

func (s *Handler) genre(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.tb.Build("home/genre").HTML(http.StatusBadRequest, web.NewContext(c).WithErr(errors.New("bad genre id")))
		return
	}
	pageNum, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	ctx := c.Request.Context()

	p, err := s.catalog.Genre(ctx, tmdb.MediaTypeMovie, id, pageNum)
	if err != nil {
		s.tb.Build("home/genre").HTML(http.StatusInternalServerError, web.NewContext(c).WithErr(err))
		return
	}
	data := &GenreData{
		Name:    fmt.Sprintf("Genre %d", id),
		Page:    p,
		PageNum: pageNum,
		GenreID: id,
		HasPrev: pageNum > 1,
		HasNext: pageNum < p.TotalPages,
	}
	genres, err := s.catalog.Genres(ctx, tmdb.MediaTypeMovie)
	if err != nil {
		log.WithError(err).Warn("genre list unavailable")
	} else {
		data.Genres = genres
		for _, g := range genres {
			if g.ID == id {
				data.Name = g.Name
				break
			}
		}
	}
	s.tb.Build("home/genre").HTML(http.StatusOK, web.NewContext(c).WithData(data))
}

func pickHero(rows []Row) *tmdb.Item {
	for _, row := range rows {
		for i := range row.Items {
			if row.Items[i].BackdropPath != "" {
				return &row.Items[i]
			}
		}
	}
	return nil
}
