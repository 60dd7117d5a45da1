package progress

import (
	"context"
	"testing"
	"time"

	"github.com/cinescope/web-ui/services/job"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	p := job.NewPool(1, 4)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return New(p)
}

func TestPercent(t *testing.T) {
	c := newTestCalculator(t)

	tests := []struct {
		name     string
		position time.Duration
		duration time.Duration
		want     float64
	}{
		{"halfway", 45 * time.Minute, 90 * time.Minute, 50},
		{"start", 0, time.Hour, 0},
		{"past end clamps", 2 * time.Hour, time.Hour, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Percent(context.Background(), tt.position, tt.duration)
			if err != nil {
				t.Fatalf("Percent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Percent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercent_ZeroDuration(t *testing.T) {
	c := newTestCalculator(t)
	if _, err := c.Percent(context.Background(), time.Minute, 0); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestSeason(t *testing.T) {
	c := newTestCalculator(t)

	sum, err := c.Season(context.Background(), []bool{true, true, false, true, false})
	if err != nil {
		t.Fatalf("Season() error = %v", err)
	}
	if sum.Watched != 3 || sum.Total != 5 {
		t.Errorf("counts = %d/%d", sum.Watched, sum.Total)
	}
	if sum.Percent != 60 {
		t.Errorf("percent = %v", sum.Percent)
	}
	if sum.NextEpisode != 3 {
		t.Errorf("next episode = %d, want 3", sum.NextEpisode)
	}
}

func TestSeason_AllWatched(t *testing.T) {
	c := newTestCalculator(t)

	sum, err := c.Season(context.Background(), []bool{true, true})
	if err != nil {
		t.Fatalf("Season() error = %v", err)
	}
	if sum.NextEpisode != 0 {
		t.Errorf("next episode = %d, want 0", sum.NextEpisode)
	}
	if sum.Percent != 100 {
		t.Errorf("percent = %v", sum.Percent)
	}
}
