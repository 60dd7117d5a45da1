package movie

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"

	"github.com/cinescope/web-ui/services/flow"
	"github.com/cinescope/web-ui/services/portal"
	"github.com/cinescope/web-ui/services/tmdb"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := cli.NewApp()
	set := flag.NewFlagSet("test", 0)
	c := cli.NewContext(app, set, nil)

	h := &Handler{
		portals: portal.New(c),
		flows:   flow.NewRegistry(),
	}
	r := gin.New()
	r.POST("/overlay/:id/open", h.open)
	r.POST("/overlay/:id/action/:action", h.action)
	r.GET("/overlay/:id", h.state)
	return r, h
}

func do(t *testing.T, r *gin.Engine, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return res.Code, body
}

func TestOverlayOpen(t *testing.T) {
	r, h := newTestRouter(t)

	code, body := do(t, r, http.MethodPost, "/overlay/overlay-movie-42/open")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %v", code)
	}
	if body["state"] != "open" {
		t.Fatalf("expected open state, got %v", body["state"])
	}
	if h.portals.Len() != 1 {
		t.Fatalf("expected one portal, got %v", h.portals.Len())
	}
}

func TestOverlayInvalidTransition(t *testing.T) {
	r, _ := newTestRouter(t)

	// back is only valid inside a sub-flow
	do(t, r, http.MethodPost, "/overlay/overlay-movie-42/open")
	code, _ := do(t, r, http.MethodPost, "/overlay/overlay-movie-42/action/back")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", code)
	}
}

func TestOverlayUnknownIDNotCreated(t *testing.T) {
	r, h := newTestRouter(t)

	code, _ := do(t, r, http.MethodGet, "/overlay/never-opened")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown overlay state, got %v", code)
	}
	code, _ = do(t, r, http.MethodPost, "/overlay/never-opened/action/play_trailer")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown overlay action, got %v", code)
	}
	if _, ok := h.flows.Peek("never-opened"); ok {
		t.Fatal("expected read-only endpoints to leave no machine behind")
	}
}

func TestOverlayUnknownAction(t *testing.T) {
	r, _ := newTestRouter(t)

	code, _ := do(t, r, http.MethodPost, "/overlay/overlay-movie-42/action/frobnicate")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", code)
	}
}

func TestOverlayCloseRemovesPortal(t *testing.T) {
	r, h := newTestRouter(t)

	do(t, r, http.MethodPost, "/overlay/overlay-movie-42/open")
	code, body := do(t, r, http.MethodPost, "/overlay/overlay-movie-42/action/close")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %v", code)
	}
	if body["state"] != "closed" {
		t.Fatalf("expected closed state, got %v", body["state"])
	}
	if h.portals.Len() != 0 {
		t.Fatalf("expected no portals after close, got %v", h.portals.Len())
	}
}

func TestOverlayStateHistory(t *testing.T) {
	r, _ := newTestRouter(t)

	do(t, r, http.MethodPost, "/overlay/overlay-tv-7/open")
	do(t, r, http.MethodPost, "/overlay/overlay-tv-7/action/play_trailer")
	do(t, r, http.MethodPost, "/overlay/overlay-tv-7/action/back")

	code, body := do(t, r, http.MethodGet, "/overlay/overlay-tv-7")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %v", code)
	}
	if body["state"] != "open" {
		t.Fatalf("expected open state, got %v", body["state"])
	}
	history, ok := body["history"].([]any)
	if !ok || len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %v", body["history"])
	}
}

func TestPickTrailer(t *testing.T) {
	vs := []tmdb.Video{
		{Key: "a", Site: "Vimeo", Type: "Trailer", Official: true},
		{Key: "b", Site: "YouTube", Type: "Clip"},
		{Key: "c", Site: "YouTube", Type: "Trailer", Official: true},
	}
	v := pickTrailer(vs)
	if v == nil || v.Key != "c" {
		t.Fatalf("expected official youtube trailer, got %+v", v)
	}

	v = pickTrailer(vs[:2])
	if v == nil || v.Key != "b" {
		t.Fatalf("expected youtube fallback, got %+v", v)
	}

	if v := pickTrailer(nil); v != nil {
		t.Fatalf("expected nil for empty list, got %+v", v)
	}
}
