package job

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	jobWorkersFlag = "job-workers"
	jobQueueFlag   = "job-queue-size"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.IntFlag{
			Name:   jobWorkersFlag,
			Usage:  "background job workers (0 = number of cpus)",
			Value:  0,
			EnvVar: "JOB_WORKERS",
		},
		cli.IntFlag{
			Name:   jobQueueFlag,
			Usage:  "background job queue size",
			Value:  64,
			EnvVar: "JOB_QUEUE_SIZE",
		},
	)
}

type task struct {
	fn  func() (any, error)
	res chan result
}

type result struct {
	v   any
	err error
}

var ErrClosed = errors.New("job pool closed")

// Pool is a request/response worker pool. Tasks share nothing with the
// caller beyond the submitted closure and its returned value.
type Pool struct {
	workers int
	tasks   chan task
	done    chan struct{}
	wg      sync.WaitGroup
	closed  sync.Once
}

func New(c *cli.Context) *Pool {
	return NewPool(c.Int(jobWorkersFlag), c.Int(jobQueueFlag))
}

func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 64
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan task, queue),
		done:    make(chan struct{}),
	}
}

func (p *Pool) Init() error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

func (p *Pool) Close() {
	p.closed.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			v, err := t.fn()
			t.res <- result{v: v, err: err}
		}
	}
}

// Submit runs fn on a worker and waits for its result or context
// cancellation. The caller owns the returned value.
func (p *Pool) Submit(ctx context.Context, fn func() (any, error)) (any, error) {
	t := task{
		fn:  fn,
		res: make(chan result, 1),
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrClosed
	case p.tasks <- t:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrClosed
	case r := <-t.res:
		return r.v, r.err
	}
}

// Do is the typed wrapper around Pool.Submit.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	v, err := p.Submit(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("unexpected task result type %T", v)
	}
	return out, nil
}
