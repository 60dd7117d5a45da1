package progress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cinescope/web-ui/services/job"
	"github.com/cinescope/web-ui/services/progress"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := job.NewPool(2, 8)
	if err := pool.Init(); err != nil {
		t.Fatalf("failed to init pool: %v", err)
	}
	t.Cleanup(pool.Close)

	r := gin.New()
	RegisterHandler(r, progress.New(pool))
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	var out map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return res.Code, out
}

func TestPercent(t *testing.T) {
	r := newTestRouter(t)

	code, body := post(t, r, "/progress/percent", `{"position_sec": 30, "duration_sec": 120}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %v", code)
	}
	if body["percent"] != 25.0 {
		t.Fatalf("expected 25 percent, got %v", body["percent"])
	}
}

func TestPercentBadPayload(t *testing.T) {
	r := newTestRouter(t)

	code, _ := post(t, r, "/progress/percent", `{"position_sec": 30}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", code)
	}
}

func TestSeason(t *testing.T) {
	r := newTestRouter(t)

	code, body := post(t, r, "/progress/season", `{"watched": [true, true, false, false]}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %v", code)
	}
	if body["watched"] != 2.0 || body["total"] != 4.0 {
		t.Fatalf("unexpected summary: %v", body)
	}
	if body["percent"] != 50.0 {
		t.Fatalf("expected 50 percent, got %v", body["percent"])
	}
	if body["next_episode"] != 3.0 {
		t.Fatalf("expected next episode 3, got %v", body["next_episode"])
	}
}
