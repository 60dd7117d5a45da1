package catalog

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

type detailsFixture struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
	Cast   []string
}

func TestDetailsCache_SetThenGet(t *testing.T) {
	c := newDetailsCache(time.Minute, 16, 1<<20)

	want := detailsFixture{Title: "Some Movie", Rating: 7.3, Cast: []string{"A", "B"}}
	if err := c.Set("movie_1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got detailsFixture
	if !c.Get("movie_1", &got) {
		t.Fatal("expected hit")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestDetailsCache_GetReturnsIndependentCopy(t *testing.T) {
	c := newDetailsCache(time.Minute, 16, 1<<20)

	_ = c.Set("movie_1", detailsFixture{Cast: []string{"A"}})

	var first detailsFixture
	c.Get("movie_1", &first)
	first.Cast[0] = "mutated"

	var second detailsFixture
	c.Get("movie_1", &second)
	if second.Cast[0] != "A" {
		t.Errorf("cached value mutated through returned copy: %v", second.Cast)
	}
}

func TestDetailsCache_TTLExpiry(t *testing.T) {
	c := newDetailsCache(time.Minute, 16, 1<<20)
	now := time.Now()
	c.now = func() time.Time { return now }

	_ = c.Set("movie_1", detailsFixture{Title: "x"})

	var got detailsFixture
	if !c.Get("movie_1", &got) {
		t.Fatal("expected hit before ttl")
	}

	now = now.Add(2 * time.Minute)
	if c.Get("movie_1", &got) {
		t.Error("expected miss after ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed, len = %d", c.Len())
	}
}

func TestDetailsCache_CountBudget(t *testing.T) {
	c := newDetailsCache(time.Minute, 3, 1<<20)

	for i := 0; i < 10; i++ {
		_ = c.Set(fmt.Sprintf("movie_%d", i), detailsFixture{Title: "x"})
		if c.Len() > 3 {
			t.Fatalf("count budget exceeded after set %d: %d", i, c.Len())
		}
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	// newest survive
	var got detailsFixture
	if !c.Get("movie_9", &got) {
		t.Error("expected newest entry to survive eviction")
	}
	if c.Get("movie_0", &got) {
		t.Error("expected oldest entry evicted")
	}
}

func TestDetailsCache_ByteBudget(t *testing.T) {
	c := newDetailsCache(time.Minute, 1000, 600)

	big := detailsFixture{Title: string(make([]byte, 200))}
	for i := 0; i < 10; i++ {
		_ = c.Set(fmt.Sprintf("movie_%d", i), big)
		if c.Bytes() > 600 {
			t.Fatalf("byte budget exceeded after set %d: %d", i, c.Bytes())
		}
	}
	if c.Len() == 0 {
		t.Error("expected at least one entry within budget")
	}
}

func TestDetailsCache_LRUOrder(t *testing.T) {
	c := newDetailsCache(time.Minute, 2, 1<<20)

	_ = c.Set("a", detailsFixture{})
	_ = c.Set("b", detailsFixture{})

	// touch a so b becomes the eviction candidate
	var got detailsFixture
	c.Get("a", &got)

	_ = c.Set("c", detailsFixture{})

	if !c.Get("a", &got) {
		t.Error("expected recently used entry to survive")
	}
	if c.Get("b", &got) {
		t.Error("expected least recently used entry evicted")
	}
}

func TestDetailsCache_Drop(t *testing.T) {
	c := newDetailsCache(time.Minute, 16, 1<<20)
	_ = c.Set("movie_1", detailsFixture{})
	c.Drop("movie_1")

	var got detailsFixture
	if c.Get("movie_1", &got) {
		t.Error("expected miss after drop")
	}
	if c.Bytes() != 0 {
		t.Errorf("expected byte accounting back to zero, got %d", c.Bytes())
	}
}
