package vitals

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_RecordsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	r := gin.New()
	r.Use(v.Middleware())
	r.GET("/movie/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/broken", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/movie/42", nil)
		r.ServeHTTP(w, req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))

	snap := v.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(snap))
	}
	if snap[0].Route != "/movie/:id" || snap[0].Count != 3 {
		t.Errorf("busiest route = %+v", snap[0])
	}
	var broken RouteVitals
	for _, rv := range snap {
		if rv.Route == "/broken" {
			broken = rv
		}
	}
	if broken.Errors != 1 {
		t.Errorf("expected 1 error on /broken, got %d", broken.Errors)
	}
}

func TestPrune(t *testing.T) {
	v := New()
	now := time.Now()
	v.now = func() time.Time { return now }

	v.record("/old", time.Millisecond, false)
	now = now.Add(20 * time.Minute)
	v.record("/fresh", time.Millisecond, false)

	pruned := v.Prune(10 * time.Minute)
	if pruned != 1 {
		t.Fatalf("expected 1 pruned route, got %d", pruned)
	}
	snap := v.Snapshot()
	if len(snap) != 1 || snap[0].Route != "/fresh" {
		t.Errorf("snapshot = %+v", snap)
	}
}
