package share

import (
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/lazymap"

	"github.com/cinescope/web-ui/services/catalog"
	"github.com/cinescope/web-ui/services/share"
	"github.com/cinescope/web-ui/services/tmdb"
)

type Handler struct {
	catalog  *catalog.Catalog
	renderer *share.Renderer
	cl       *http.Client
	cards    *lazymap.LazyMap[[]byte]
}

func RegisterHandler(r *gin.Engine, cat *catalog.Catalog, renderer *share.Renderer, cl *http.Client) {
	h := &Handler{
		catalog:  cat,
		renderer: renderer,
		cl:       cl,
		cards: lazymap.New[[]byte](&lazymap.Config{
			Expire:      time.Hour,
			ErrorExpire: 30 * time.Second,
		}),
	}
	r.GET("/share/movie/:id/card.png", h.card(tmdb.MediaTypeMovie))
	r.GET("/share/tv/:id/card.png", h.card(tmdb.MediaTypeTV))
}

func (s *Handler) card(mediaType tmdb.MediaType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		key := fmt.Sprintf("%s_%d", mediaType, id)
		data, err := s.cards.Get(key, func() ([]byte, error) {
			return s.render(c, mediaType, id)
		})
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
			log.WithError(err).Error("failed to render share card")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "image/png", data)
	}
}

func (s *Handler) render(c *gin.Context, mediaType tmdb.MediaType, id int64) ([]byte, error) {
	ctx := c.Request.Context()
	d, err := s.catalog.Details(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	card := share.Card{
		Title:  d.Title,
		Year:   d.Year(),
		Rating: d.Rating,
	}
	// missing artwork degrades to a text-only card
	if img, err := s.fetchImage(c, d.PosterURL("w500")); err == nil {
		card.Poster = img
	} else if err != errNoImage {
		log.WithError(err).Warn("poster fetch failed")
	}
	if img, err := s.fetchImage(c, d.BackdropURL("w1280")); err == nil {
		card.Backdrop = img
	} else if err != errNoImage {
		log.WithError(err).Warn("backdrop fetch failed")
	}
	return s.renderer.RenderPNG(ctx, card)
}

var errNoImage = errors.New("no image")

func (s *Handler) fetchImage(c *gin.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errNoImage
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build image request")
	}
	res, err := s.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch image")
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("image fetch returned %v", res.StatusCode)
	}
	img, err := imaging.Decode(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}
