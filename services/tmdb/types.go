package tmdb

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
	MediaTypeAll   MediaType = "all"
)

func (t MediaType) String() string {
	return string(t)
}

func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(s)) {
	case MediaTypeMovie:
		return MediaTypeMovie, nil
	case MediaTypeTV:
		return MediaTypeTV, nil
	case MediaTypeAll:
		return MediaTypeAll, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

const imageBaseURL = "https://image.tmdb.org/t/p"

// Item is the shaped listing entry used across the app. Movie and TV
// responses are normalized here (title/name, release/first air date).
type Item struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	PosterPath   string    `json:"poster_path"`
	BackdropPath string    `json:"backdrop_path"`
	Rating       float64   `json:"vote_average"`
	Votes        int64     `json:"vote_count"`
	GenreIDs     []int64   `json:"genre_ids"`
	ReleaseDate  string    `json:"release_date"`
	MediaType    MediaType `json:"media_type"`
}

func (s *Item) PosterURL(size string) string {
	if s.PosterPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", imageBaseURL, size, s.PosterPath)
}

func (s *Item) BackdropURL(size string) string {
	if s.BackdropPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", imageBaseURL, size, s.BackdropPath)
}

func (s *Item) Year() string {
	if len(s.ReleaseDate) < 4 {
		return ""
	}
	return s.ReleaseDate[:4]
}

// Page is one page of a paginated listing.
type Page struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Items      []Item `json:"results"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Details struct {
	Item
	Genres   []Genre `json:"genres"`
	Runtime  int     `json:"runtime"`
	Tagline  string  `json:"tagline"`
	Status   string  `json:"status"`
	Homepage string  `json:"homepage"`

	NumberOfSeasons  int `json:"number_of_seasons"`
	NumberOfEpisodes int `json:"number_of_episodes"`
}

type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
}

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type videosResponse struct {
	Results []Video `json:"results"`
}

type genresResponse struct {
	Genres []Genre `json:"genres"`
}

// rawItem carries the union of movie and tv listing fields.
type rawItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	GenreIDs     []int64 `json:"genre_ids"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
}

type rawPage struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Results    []rawItem `json:"results"`
}

func shapeItem(r rawItem, fallback MediaType) Item {
	item := Item{
		ID:           r.ID,
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		Rating:       r.VoteAverage,
		Votes:        r.VoteCount,
		GenreIDs:     r.GenreIDs,
		ReleaseDate:  r.ReleaseDate,
		MediaType:    MediaType(r.MediaType),
	}
	if item.Title == "" {
		item.Title = r.Name
	}
	if item.ReleaseDate == "" {
		item.ReleaseDate = r.FirstAirDate
	}
	if item.MediaType == "" || item.MediaType == MediaTypeAll {
		item.MediaType = fallback
		if fallback == MediaTypeAll {
			if r.Name != "" || r.FirstAirDate != "" {
				item.MediaType = MediaTypeTV
			} else {
				item.MediaType = MediaTypeMovie
			}
		}
	}
	return item
}

func shapePage(r rawPage, fallback MediaType) *Page {
	p := &Page{
		Page:       r.Page,
		TotalPages: r.TotalPages,
		Items:      make([]Item, 0, len(r.Results)),
	}
	for _, raw := range r.Results {
		p.Items = append(p.Items, shapeItem(raw, fallback))
	}
	return p
}
