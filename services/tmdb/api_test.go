package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestApi(handler http.Handler) (*Api, *httptest.Server) {
	srv := httptest.NewServer(handler)
	api := &Api{
		url: srv.URL,
		cl:  srv.Client(),
		prepareRequest: func(r *http.Request) (*http.Request, error) {
			return r, nil
		},
	}
	return api, srv
}

func TestTrending_ShapesMixedResults(t *testing.T) {
	api, srv := newTestApi(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/trending/all/week" {
			t.Errorf("unexpected path %v", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 1,
			"total_pages": 10,
			"results": [
				{"id": 1, "title": "Movie One", "release_date": "2024-03-01", "media_type": "movie", "vote_average": 7.5},
				{"id": 2, "name": "Show Two", "first_air_date": "2023-01-15", "media_type": "tv"}
			]
		}`))
	}))
	defer srv.Close()

	p, err := api.Trending(context.Background(), MediaTypeAll, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(p.Items))
	}
	if p.Items[0].Title != "Movie One" || p.Items[0].MediaType != MediaTypeMovie {
		t.Errorf("movie not shaped: %+v", p.Items[0])
	}
	if p.Items[1].Title != "Show Two" || p.Items[1].MediaType != MediaTypeTV {
		t.Errorf("tv item not shaped: %+v", p.Items[1])
	}
	if p.Items[1].ReleaseDate != "2023-01-15" {
		t.Errorf("expected first_air_date fallback, got %q", p.Items[1].ReleaseDate)
	}
}

func TestSearch_DropsPersonResults(t *testing.T) {
	api, srv := newTestApi(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 1,
			"total_pages": 1,
			"results": [
				{"id": 1, "title": "Matched Movie", "media_type": "movie"},
				{"id": 2, "name": "Some Actor", "media_type": "person"},
				{"id": 3, "name": "Matched Show", "media_type": "tv"}
			]
		}`))
	}))
	defer srv.Close()

	p, err := api.Search(context.Background(), "matched", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected person result dropped, got %d items", len(p.Items))
	}
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	called := false
	api, srv := newTestApi(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p, err := api.Search(context.Background(), "   ", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Error("expected no upstream call for empty query")
	}
	if len(p.Items) != 0 {
		t.Errorf("expected empty page, got %d items", len(p.Items))
	}
}

func TestDetails_TVNameFallback(t *testing.T) {
	api, srv := newTestApi(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42,
			"name": "Long Running Show",
			"first_air_date": "2010-09-01",
			"number_of_seasons": 5,
			"genres": [{"id": 18, "name": "Drama"}]
		}`))
	}))
	defer srv.Close()

	d, err := api.Details(context.Background(), MediaTypeTV, 42)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Title != "Long Running Show" {
		t.Errorf("expected name fallback, got %q", d.Title)
	}
	if d.ReleaseDate != "2010-09-01" {
		t.Errorf("expected first_air_date fallback, got %q", d.ReleaseDate)
	}
	if d.NumberOfSeasons != 5 || len(d.Genres) != 1 {
		t.Errorf("details not decoded: %+v", d)
	}
}

func TestDetails_NotFound(t *testing.T) {
	api, srv := newTestApi(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := api.Details(context.Background(), MediaTypeMovie, 999)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestItem_PosterURL(t *testing.T) {
	item := Item{PosterPath: "/abc.jpg"}
	if got := item.PosterURL("w500"); got != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Errorf("PosterURL() = %v", got)
	}
	empty := Item{}
	if got := empty.PosterURL("w500"); got != "" {
		t.Errorf("expected empty url, got %v", got)
	}
}
