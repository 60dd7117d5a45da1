package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/lazymap"

	"github.com/cinescope/web-ui/services/tmdb"
)

// Catalog is the fetch-through listing layer: concurrent identical requests
// coalesce in the LazyMap, Redis holds warm pages behind it, TMDB is the
// source of truth behind that.
type Catalog struct {
	api     *tmdb.Api
	pages   *PageCache
	details *DetailsCache
	lm      *lazymap.LazyMap[*tmdb.Page]
	genres  *lazymap.LazyMap[[]tmdb.Genre]
}

func New(api *tmdb.Api, pages *PageCache, details *DetailsCache) *Catalog {
	return &Catalog{
		api:     api,
		pages:   pages,
		details: details,
		lm: lazymap.New[*tmdb.Page](&lazymap.Config{
			Expire:      time.Minute,
			ErrorExpire: 10 * time.Second,
		}),
		genres: lazymap.New[[]tmdb.Genre](&lazymap.Config{
			Expire:      time.Hour,
			ErrorExpire: 10 * time.Second,
		}),
	}
}

func (s *Catalog) Trending(ctx context.Context, mediaType tmdb.MediaType, page int) (*tmdb.Page, error) {
	category := fmt.Sprintf("trending_%s", mediaType)
	return s.listing(ctx, category, page, func() (*tmdb.Page, error) {
		return s.api.Trending(ctx, mediaType, page)
	})
}

func (s *Catalog) Popular(ctx context.Context, mediaType tmdb.MediaType, page int) (*tmdb.Page, error) {
	category := fmt.Sprintf("popular_%s", mediaType)
	return s.listing(ctx, category, page, func() (*tmdb.Page, error) {
		return s.api.Popular(ctx, mediaType, page)
	})
}

func (s *Catalog) TopRated(ctx context.Context, mediaType tmdb.MediaType, page int) (*tmdb.Page, error) {
	category := fmt.Sprintf("top_rated_%s", mediaType)
	return s.listing(ctx, category, page, func() (*tmdb.Page, error) {
		return s.api.TopRated(ctx, mediaType, page)
	})
}

func (s *Catalog) Genre(ctx context.Context, mediaType tmdb.MediaType, genreID int64, page int) (*tmdb.Page, error) {
	category := fmt.Sprintf("genre_%s_%d", mediaType, genreID)
	return s.listing(ctx, category, page, func() (*tmdb.Page, error) {
		return s.api.DiscoverByGenre(ctx, mediaType, genreID, page)
	})
}

func (s *Catalog) Genres(ctx context.Context, mediaType tmdb.MediaType) ([]tmdb.Genre, error) {
	return s.genres.Get(fmt.Sprintf("genres_%s", mediaType), func() ([]tmdb.Genre, error) {
		return s.api.Genres(ctx, mediaType)
	})
}

// Search is never page-cached; it only coalesces concurrent duplicates.
func (s *Catalog) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	key := fmt.Sprintf("search_%s_%d", query, page)
	return s.lm.Get(key, func() (*tmdb.Page, error) {
		return s.api.Search(ctx, query, page)
	})
}

func (s *Catalog) Details(ctx context.Context, mediaType tmdb.MediaType, id int64) (*tmdb.Details, error) {
	key := fmt.Sprintf("details_%s_%d", mediaType, id)
	var d tmdb.Details
	if s.details.Get(key, &d) {
		return &d, nil
	}
	res, err := s.api.Details(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	if err := s.details.Set(key, res); err != nil {
		log.WithError(err).Warn("details cache write failed")
	}
	return res, nil
}

func (s *Catalog) Credits(ctx context.Context, mediaType tmdb.MediaType, id int64) (*tmdb.Credits, error) {
	key := fmt.Sprintf("credits_%s_%d", mediaType, id)
	var cr tmdb.Credits
	if s.details.Get(key, &cr) {
		return &cr, nil
	}
	res, err := s.api.Credits(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	if err := s.details.Set(key, res); err != nil {
		log.WithError(err).Warn("details cache write failed")
	}
	return res, nil
}

func (s *Catalog) Videos(ctx context.Context, mediaType tmdb.MediaType, id int64) ([]tmdb.Video, error) {
	key := fmt.Sprintf("videos_%s_%d", mediaType, id)
	var vs []tmdb.Video
	if s.details.Get(key, &vs) {
		return vs, nil
	}
	res, err := s.api.Videos(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	if err := s.details.Set(key, res); err != nil {
		log.WithError(err).Warn("details cache write failed")
	}
	return res, nil
}

func (s *Catalog) Similar(ctx context.Context, mediaType tmdb.MediaType, id int64, page int) (*tmdb.Page, error) {
	key := fmt.Sprintf("similar_%s_%d_%d", mediaType, id, page)
	return s.lm.Get(key, func() (*tmdb.Page, error) {
		return s.api.Similar(ctx, mediaType, id, page)
	})
}

func (s *Catalog) listing(ctx context.Context, category string, page int, fetch func() (*tmdb.Page, error)) (*tmdb.Page, error) {
	key := fmt.Sprintf("%s_%d", category, page)
	return s.lm.Get(key, func() (*tmdb.Page, error) {
		if raw, ok := s.pages.Get(ctx, category, page); ok {
			var p tmdb.Page
			if err := json.Unmarshal(raw, &p); err == nil {
				return &p, nil
			}
			log.WithField("category", category).Warn("cached page failed to decode, refetching")
		}
		p, err := fetch()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(p)
		if err == nil {
			if err := s.pages.Set(ctx, category, page, raw); err != nil {
				log.WithError(err).WithField("category", category).Warn("page cache write failed")
			}
		}
		return p, nil
	})
}
