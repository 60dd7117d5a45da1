package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

type fakeRoundTripper struct {
	calls     int
	responses []*http.Response
	errs      []error
}

func (f *fakeRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], f.errs[i]
}

func newResp(code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       http.NoBody,
	}
}

func TestRoundTrip_RetriesOnError(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{nil, newResp(http.StatusOK)},
		errs:      []error{errors.New("conn reset"), nil},
	}
	tr := NewTransport(rt, 2, time.Millisecond, nil)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if rt.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", rt.calls)
	}
}

func TestRoundTrip_RetriesOnServerError(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{newResp(http.StatusServiceUnavailable), newResp(http.StatusOK)},
		errs:      []error{nil, nil},
	}
	tr := NewTransport(rt, 2, time.Millisecond, nil)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRoundTrip_GivesUpAfterCap(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{nil},
		errs:      []error{errors.New("conn reset")},
	}
	tr := NewTransport(rt, 2, time.Millisecond, nil)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, err := tr.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if rt.calls != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", rt.calls)
	}
}

func TestRoundTrip_NoRetryForPost(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{nil},
		errs:      []error{errors.New("conn reset")},
	}
	tr := NewTransport(rt, 2, time.Millisecond, nil)

	req, _ := http.NewRequest(http.MethodPost, "http://example.com/", nil)
	req.Body = http.NoBody
	_, err := tr.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error")
	}
	if rt.calls != 1 {
		t.Errorf("expected single attempt for POST, got %d", rt.calls)
	}
}

func TestRoundTrip_ContextCancelStopsRetries(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{nil},
		errs:      []error{errors.New("conn reset")},
	}
	tr := NewTransport(rt, 5, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com/", nil)
	cancel()

	_, err := tr.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error")
	}
	if rt.calls > 1 {
		t.Errorf("expected no retries after cancellation, got %d attempts", rt.calls)
	}
}

func TestRoundTrip_LimiterWaits(t *testing.T) {
	rt := &fakeRoundTripper{
		responses: []*http.Response{newResp(http.StatusOK)},
		errs:      []error{nil},
	}
	tr := NewTransport(rt, 0, time.Millisecond, rate.NewLimiter(rate.Inf, 1))

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if _, err := tr.RoundTrip(req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
