package portal

import (
	"fmt"
	"strings"
	"time"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "normal", "":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

// Portal is one registered overlay. ZIndex values come from a monotonically
// increasing counter and are never reused.
type Portal struct {
	ID           string
	Priority     Priority
	Group        string
	ZIndex       int
	Pinned       bool
	CreatedAt    time.Time
	LastActiveAt time.Time

	container *Container
}

func (p *Portal) Container() *Container {
	return p.container
}

// CreateOptions configures a new portal. The zero value is a normal-priority
// ungrouped portal.
type CreateOptions struct {
	Priority Priority
	Group    string
	Pinned   bool
	Role     string
	Theme    string
	Attrs    map[string]string
}
