package progress

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/cinescope/web-ui/services/job"
)

// Calculator offloads watch-progress math to the job pool, mirroring a
// dedicated worker: pure request/response, no shared state.
type Calculator struct {
	pool *job.Pool
}

func New(pool *job.Pool) *Calculator {
	return &Calculator{
		pool: pool,
	}
}

// Percent returns playback completion clamped to [0, 100].
func (s *Calculator) Percent(ctx context.Context, position, duration time.Duration) (float64, error) {
	return job.Do(ctx, s.pool, func() (float64, error) {
		if duration <= 0 {
			return 0, errors.New("non-positive duration")
		}
		p := float64(position) / float64(duration) * 100
		return math.Min(100, math.Max(0, p)), nil
	})
}

// SeasonSummary describes progress through an episode list.
type SeasonSummary struct {
	Watched     int
	Total       int
	Percent     float64
	NextEpisode int // 1-based, 0 when everything is watched
}

func (s *Calculator) Season(ctx context.Context, watched []bool) (SeasonSummary, error) {
	return job.Do(ctx, s.pool, func() (SeasonSummary, error) {
		sum := SeasonSummary{
			Total: len(watched),
		}
		for i, w := range watched {
			if w {
				sum.Watched++
			} else if sum.NextEpisode == 0 {
				sum.NextEpisode = i + 1
			}
		}
		if sum.Total > 0 {
			sum.Percent = math.Round(float64(sum.Watched)/float64(sum.Total)*1000) / 10
		}
		return sum, nil
	})
}
