package apiclient

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"
)

const (
	apiRetriesFlag   = "api-retries"
	apiBackoffFlag   = "api-retry-backoff"
	apiTimeoutFlag   = "api-timeout"
	apiRateFlag      = "api-rate-limit"
	apiRateBurstFlag = "api-rate-burst"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.IntFlag{
			Name:   apiRetriesFlag,
			Usage:  "max retries for outbound api requests (not counting the first attempt)",
			Value:  3,
			EnvVar: "API_RETRIES",
		},
		cli.DurationFlag{
			Name:   apiBackoffFlag,
			Usage:  "base backoff delay between retries, doubled per attempt",
			Value:  250 * time.Millisecond,
			EnvVar: "API_RETRY_BACKOFF",
		},
		cli.DurationFlag{
			Name:   apiTimeoutFlag,
			Usage:  "outbound api request timeout",
			Value:  20 * time.Second,
			EnvVar: "API_TIMEOUT",
		},
		cli.Float64Flag{
			Name:   apiRateFlag,
			Usage:  "outbound api requests per second",
			Value:  20,
			EnvVar: "API_RATE_LIMIT",
		},
		cli.IntFlag{
			Name:   apiRateBurstFlag,
			Usage:  "outbound api rate limiter burst",
			Value:  10,
			EnvVar: "API_RATE_BURST",
		},
	)
}

// Transport adds capped exponential-backoff retry and client-side rate
// limiting on top of a base RoundTripper. Only replayable requests
// (GET/HEAD without body) are retried; context cancellation stops retries.
type Transport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
	limiter *rate.Limiter
}

func NewTransport(base http.RoundTripper, retries int, backoff time.Duration, limiter *rate.Limiter) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		retries: retries,
		backoff: backoff,
		limiter: limiter,
	}
}

func New(c *cli.Context) *http.Client {
	limiter := rate.NewLimiter(rate.Limit(c.Float64(apiRateFlag)), c.Int(apiRateBurstFlag))
	return &http.Client{
		Transport: NewTransport(http.DefaultTransport, c.Int(apiRetriesFlag), c.Duration(apiBackoffFlag), limiter),
		Timeout:   c.Duration(apiTimeoutFlag),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.retries
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 {
			if err := t.wait(req, t.delay(attempt)); err != nil {
				return nil, err
			}
		}
		if t.limiter != nil {
			if err := t.limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(req.Clone(req.Context()))
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, lastErr
			}
			continue
		}
		if attempt < max && retryableStatus(resp.StatusCode) {
			lastErr = errors.Errorf("unexpected status code: %d", resp.StatusCode)
			_ = resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (t *Transport) delay(attempt int) time.Duration {
	return t.backoff << (attempt - 1)
}

func (t *Transport) wait(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
