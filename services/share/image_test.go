package share

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/cinescope/web-ui/services/job"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	p := job.NewPool(1, 4)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return NewRenderer(p, 300, 160)
}

func TestRenderPNG_ProducesDecodableImage(t *testing.T) {
	r := newTestRenderer(t)

	poster := imaging.New(60, 90, color.White)
	data, err := r.RenderPNG(context.Background(), Card{
		Title:  "Some Movie",
		Year:   "2024",
		Rating: 7.8,
		Poster: poster,
	})
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid png: %v", err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 160 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestRenderPNG_NoTitle(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.RenderPNG(context.Background(), Card{}); err == nil {
		t.Fatal("expected error without title")
	}
}

func TestRenderPNG_BackdropOnly(t *testing.T) {
	r := newTestRenderer(t)
	backdrop := imaging.New(200, 100, color.Black)
	if _, err := r.RenderPNG(context.Background(), Card{
		Title:    "Backdrop Movie",
		Backdrop: backdrop,
	}); err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
}
