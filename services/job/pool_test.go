package job

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p := NewPool(2, 8)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestSubmit_ReturnsResult(t *testing.T) {
	p := newTestPool(t)

	v, err := Do(context.Background(), p, func() (int, error) {
		return 41 + 1, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestSubmit_PropagatesError(t *testing.T) {
	p := newTestPool(t)

	_, err := Do(context.Background(), p, func() (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSubmit_ContextCancellation(t *testing.T) {
	p := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Submit(ctx, func() (any, error) {
		return nil, nil
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSubmit_AfterClose(t *testing.T) {
	p := NewPool(1, 1)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	p.Close()

	_, err := p.Submit(context.Background(), func() (any, error) {
		return nil, nil
	})
	if err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSubmit_Concurrent(t *testing.T) {
	p := newTestPool(t)

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Do(context.Background(), p, func() (int, error) {
				return i * 2, nil
			})
			if err != nil {
				t.Errorf("task %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()
	for i, v := range results {
		if v != i*2 {
			t.Errorf("task %d result = %d", i, v)
		}
	}
}
