package portal

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Optional capabilities the manager coordinates across portals. All of them
// are injected at construction; a missing capability degrades to a no-op
// after a single warning.

// Animator receives enter/exit transitions to sequence.
type Animator interface {
	Enqueue(id string, kind string)
}

// Analytics receives lifecycle events.
type Analytics interface {
	Track(event string, fields map[string]any)
}

// Themer applies a theme to a freshly created container.
type Themer interface {
	Apply(c *Container, theme string)
}

// Decorator sets accessibility attributes on a freshly created container.
type Decorator interface {
	Decorate(c *Container, role string)
}

// QueueAnimator is a bounded in-memory animation queue. Entries past the
// bound push out the oldest; consumers poll via Drain.
type QueueAnimator struct {
	mux   sync.Mutex
	queue []AnimationEntry
	limit int
}

type AnimationEntry struct {
	PortalID string
	Kind     string
}

func NewQueueAnimator(limit int) *QueueAnimator {
	return &QueueAnimator{
		limit: limit,
	}
}

func (s *QueueAnimator) Enqueue(id string, kind string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.queue = append(s.queue, AnimationEntry{PortalID: id, Kind: kind})
	if len(s.queue) > s.limit {
		s.queue = s.queue[len(s.queue)-s.limit:]
	}
}

func (s *QueueAnimator) Drain() []AnimationEntry {
	s.mux.Lock()
	defer s.mux.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

// LogAnalytics reports portal lifecycle events through the standard logger.
type LogAnalytics struct{}

func (LogAnalytics) Track(event string, fields map[string]any) {
	log.WithFields(fields).Debugf("portal event %v", event)
}

// AttrThemer stores the theme as a data attribute for the views to pick up.
type AttrThemer struct{}

func (AttrThemer) Apply(c *Container, theme string) {
	if theme == "" {
		theme = "dark"
	}
	c.SetAttr("data-theme", theme)
}

// AriaDecorator sets the static accessibility attributes for an overlay role.
type AriaDecorator struct{}

func (AriaDecorator) Decorate(c *Container, role string) {
	if role == "" {
		role = "dialog"
	}
	c.SetAttr("role", role)
	switch role {
	case "dialog", "alertdialog":
		c.SetAttr("aria-modal", "true")
		c.SetAttr("tabindex", "-1")
	case "status":
		c.SetAttr("aria-live", "polite")
		c.SetAttr("aria-atomic", "true")
	}
}
