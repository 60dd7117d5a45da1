package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	tmdbApiKeyFlag    = "tmdb-api-key"
	tmdbApiHostFlag   = "tmdb-api-host"
	tmdbApiPortFlag   = "tmdb-api-port"
	tmdbApiSecureFlag = "tmdb-api-secure"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   tmdbApiHostFlag,
			Usage:  "tmdb api host",
			EnvVar: "TMDB_API_HOST",
			Value:  "api.themoviedb.org",
		},
		cli.IntFlag{
			Name:   tmdbApiPortFlag,
			Usage:  "tmdb api port",
			EnvVar: "TMDB_API_PORT",
			Value:  443,
		},
		cli.BoolTFlag{
			Name:   tmdbApiSecureFlag,
			Usage:  "tmdb api secure (https)",
			EnvVar: "TMDB_API_SECURE",
		},
		cli.StringFlag{
			Name:   tmdbApiKeyFlag,
			Usage:  "tmdb api key",
			Value:  "",
			EnvVar: "TMDB_API_KEY",
		},
	)
}

type Api struct {
	url            string
	cl             *http.Client
	prepareRequest func(r *http.Request) (*http.Request, error)
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(tmdbApiHostFlag)
	port := c.Int(tmdbApiPortFlag)
	secure := c.BoolT(tmdbApiSecureFlag)
	key := c.String(tmdbApiKeyFlag)
	if key == "" {
		return nil
	}
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, port)
	prepareRequest := func(r *http.Request) (*http.Request, error) {
		q := r.URL.Query()
		q.Set("api_key", key)
		r.URL.RawQuery = q.Encode()
		r.Header.Set("Accept", "application/json")
		return r, nil
	}
	log.Infof("tmdb api endpoint %v", u)
	return &Api{
		url:            u,
		cl:             cl,
		prepareRequest: prepareRequest,
	}
}

func (api *Api) get(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", api.url+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	req, err = api.prepareRequest(req)
	if err != nil {
		return errors.Wrap(err, "prepare request")
	}

	resp, err := api.cl.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

var ErrNotFound = errors.New("tmdb: not found")

func (api *Api) page(ctx context.Context, path string, query map[string]string, fallback MediaType) (*Page, error) {
	var raw rawPage
	if err := api.get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return shapePage(raw, fallback), nil
}

func (api *Api) Trending(ctx context.Context, mediaType MediaType, page int) (*Page, error) {
	return api.page(ctx, fmt.Sprintf("/3/trending/%s/week", mediaType), map[string]string{
		"page": strconv.Itoa(page),
	}, mediaType)
}

func (api *Api) Popular(ctx context.Context, mediaType MediaType, page int) (*Page, error) {
	if mediaType == MediaTypeAll {
		return nil, errors.Errorf("popular listing requires movie or tv, got %v", mediaType)
	}
	return api.page(ctx, fmt.Sprintf("/3/%s/popular", mediaType), map[string]string{
		"page": strconv.Itoa(page),
	}, mediaType)
}

func (api *Api) TopRated(ctx context.Context, mediaType MediaType, page int) (*Page, error) {
	if mediaType == MediaTypeAll {
		return nil, errors.Errorf("top rated listing requires movie or tv, got %v", mediaType)
	}
	return api.page(ctx, fmt.Sprintf("/3/%s/top_rated", mediaType), map[string]string{
		"page": strconv.Itoa(page),
	}, mediaType)
}

func (api *Api) DiscoverByGenre(ctx context.Context, mediaType MediaType, genreID int64, page int) (*Page, error) {
	if mediaType == MediaTypeAll {
		return nil, errors.Errorf("discover listing requires movie or tv, got %v", mediaType)
	}
	return api.page(ctx, fmt.Sprintf("/3/discover/%s", mediaType), map[string]string{
		"with_genres": strconv.FormatInt(genreID, 10),
		"sort_by":     "popularity.desc",
		"page":        strconv.Itoa(page),
	}, mediaType)
}

func (api *Api) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Page{Page: 1, TotalPages: 1}, nil
	}
	p, err := api.page(ctx, "/3/search/multi", map[string]string{
		"query": query,
		"page":  strconv.Itoa(page),
	}, MediaTypeAll)
	if err != nil {
		return nil, err
	}
	// search/multi mixes in person results that carry no poster or rating
	items := p.Items[:0]
	for _, item := range p.Items {
		if item.MediaType == MediaTypeMovie || item.MediaType == MediaTypeTV {
			items = append(items, item)
		}
	}
	p.Items = items
	return p, nil
}

func (api *Api) Details(ctx context.Context, mediaType MediaType, id int64) (*Details, error) {
	var raw json.RawMessage
	if err := api.get(ctx, fmt.Sprintf("/3/%s/%d", mediaType, id), nil, &raw); err != nil {
		return nil, err
	}
	var d Details
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, "decode details")
	}
	// tv details use "name" and "first_air_date"
	var named struct {
		Name         string `json:"name"`
		FirstAirDate string `json:"first_air_date"`
	}
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, errors.Wrap(err, "decode details")
	}
	if d.Title == "" {
		d.Title = named.Name
	}
	if d.ReleaseDate == "" {
		d.ReleaseDate = named.FirstAirDate
	}
	d.MediaType = mediaType
	return &d, nil
}

func (api *Api) Credits(ctx context.Context, mediaType MediaType, id int64) (*Credits, error) {
	var cr Credits
	if err := api.get(ctx, fmt.Sprintf("/3/%s/%d/credits", mediaType, id), nil, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

func (api *Api) Videos(ctx context.Context, mediaType MediaType, id int64) ([]Video, error) {
	var vr videosResponse
	if err := api.get(ctx, fmt.Sprintf("/3/%s/%d/videos", mediaType, id), nil, &vr); err != nil {
		return nil, err
	}
	return vr.Results, nil
}

func (api *Api) Similar(ctx context.Context, mediaType MediaType, id int64, page int) (*Page, error) {
	return api.page(ctx, fmt.Sprintf("/3/%s/%d/similar", mediaType, id), map[string]string{
		"page": strconv.Itoa(page),
	}, mediaType)
}

func (api *Api) Genres(ctx context.Context, mediaType MediaType) ([]Genre, error) {
	var gr genresResponse
	if err := api.get(ctx, fmt.Sprintf("/3/genre/%s/list", mediaType), nil, &gr); err != nil {
		return nil, err
	}
	return gr.Genres, nil
}
