package portal

import (
	"sync"
)

// Container is the addressable mount point for one portal. Children are
// tracked by refcount; a draining container signals once the last child
// releases, which is what deferred removal waits on.
type Container struct {
	id string

	mux      sync.Mutex
	attrs    map[string]string
	children int
	draining bool
	drained  chan struct{}
}

func newContainer(id string) *Container {
	return &Container{
		id: id,
		attrs: map[string]string{
			"data-portal-id": id,
		},
		drained: make(chan struct{}),
	}
}

func (c *Container) ID() string {
	return c.id
}

func (c *Container) SetAttr(k, v string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.attrs[k] = v
}

func (c *Container) Attr(k string) string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.attrs[k]
}

// Attrs returns a copy of the container attributes for rendering.
func (c *Container) Attrs() map[string]string {
	c.mux.Lock()
	defer c.mux.Unlock()
	out := make(map[string]string, len(c.attrs))
	for k, v := range c.attrs {
		out[k] = v
	}
	return out
}

func (c *Container) Retain() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.children++
}

func (c *Container) Release() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.children > 0 {
		c.children--
	}
	if c.children == 0 && c.draining {
		c.draining = false
		close(c.drained)
	}
}

func (c *Container) Children() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.children
}

// drain marks the container as pending removal and returns a channel closed
// once it becomes childless. A childless container signals immediately.
func (c *Container) drain() <-chan struct{} {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.children == 0 {
		if c.draining {
			c.draining = false
		}
		ch := c.drained
		select {
		case <-ch:
		default:
			close(ch)
		}
		return ch
	}
	c.draining = true
	return c.drained
}
