package portal

import (
	"runtime"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/cinescope/web-ui/services/resmon"
)

const (
	idleTimeoutFlag    = "portal-idle-timeout"
	evictIntervalFlag  = "portal-evict-interval"
	reclaimTimeoutFlag = "portal-reclaim-timeout"
	metricsExpireFlag  = "portal-metrics-expire"
	heapBudgetMBFlag   = "portal-heap-budget-mb"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   idleTimeoutFlag,
			Usage:  "evict portals with no interaction for this long",
			Value:  5 * time.Minute,
			EnvVar: "PORTAL_IDLE_TIMEOUT",
		},
		cli.DurationFlag{
			Name:   evictIntervalFlag,
			Usage:  "how often idle portals are scanned",
			Value:  time.Minute,
			EnvVar: "PORTAL_EVICT_INTERVAL",
		},
		cli.DurationFlag{
			Name:   reclaimTimeoutFlag,
			Usage:  "max wait for a removed portal container to drain",
			Value:  5 * time.Second,
			EnvVar: "PORTAL_RECLAIM_TIMEOUT",
		},
		cli.DurationFlag{
			Name:   metricsExpireFlag,
			Usage:  "drop portal metric records older than this",
			Value:  10 * time.Minute,
			EnvVar: "PORTAL_METRICS_EXPIRE",
		},
		cli.IntFlag{
			Name:   heapBudgetMBFlag,
			Usage:  "evict idle portals once heap exceeds this many MB",
			Value:  200,
			EnvVar: "PORTAL_HEAP_BUDGET_MB",
		},
	)
}

type config struct {
	idleTimeout    time.Duration
	evictInterval  time.Duration
	reclaimTimeout time.Duration
	metricsExpire  time.Duration
	heapBudget     uint64
}

type Option func(*Manager)

func WithAnimator(a Animator) Option {
	return func(m *Manager) { m.animator = a }
}

func WithAnalytics(a Analytics) Option {
	return func(m *Manager) { m.analytics = a }
}

func WithThemer(t Themer) Option {
	return func(m *Manager) { m.themer = t }
}

func WithDecorator(d Decorator) Option {
	return func(m *Manager) { m.decorator = d }
}

func WithTracker(t *resmon.Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

type portalMetrics struct {
	Interactions int
	LastSeen     time.Time
}

// Manager owns the overlay registry: one container per id, a stack ordered
// by (priority desc, z-index desc), deferred container reclamation, and
// idle/heap-pressure eviction. All methods are safe for concurrent use.
type Manager struct {
	cfg config

	mux     sync.Mutex
	portals map[string]*Portal
	stack   []*Portal
	zNext   int
	metrics map[string]*portalMetrics
	tokens  map[string]resmon.Token

	animator  Animator
	analytics Analytics
	themer    Themer
	decorator Decorator
	tracker   *resmon.Tracker

	warnAnimator  sync.Once
	warnAnalytics sync.Once
	warnThemer    sync.Once
	warnDecorator sync.Once

	memUsage func() uint64
	now      func() time.Time

	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

func New(c *cli.Context, opts ...Option) *Manager {
	return newManager(config{
		idleTimeout:    c.Duration(idleTimeoutFlag),
		evictInterval:  c.Duration(evictIntervalFlag),
		reclaimTimeout: c.Duration(reclaimTimeoutFlag),
		metricsExpire:  c.Duration(metricsExpireFlag),
		heapBudget:     uint64(c.Int(heapBudgetMBFlag)) << 20,
	}, opts...)
}

func newManager(cfg config, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		portals: map[string]*Portal{},
		metrics: map[string]*portalMetrics{},
		tokens:  map[string]resmon.Token{},
		memUsage: func() uint64 {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			return ms.HeapAlloc
		},
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Init starts the eviction and metrics-pruning tickers.
func (m *Manager) Init() error {
	if m.cfg.evictInterval <= 0 {
		m.cfg.evictInterval = time.Minute
	}
	if m.cfg.metricsExpire <= 0 {
		m.cfg.metricsExpire = 10 * time.Minute
	}
	m.wg.Add(1)
	go m.evictLoop()
	m.wg.Add(1)
	go m.metricsLoop()
	return nil
}

func (m *Manager) Close() {
	m.closed.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}

// Create returns the portal for id, creating it if absent. Creation is
// idempotent: an existing id returns the existing record untouched.
func (m *Manager) Create(id string, opts CreateOptions) *Portal {
	m.mux.Lock()
	if p, ok := m.portals[id]; ok {
		m.mux.Unlock()
		m.track("portal_reused", map[string]any{"id": id})
		return p
	}

	now := m.now()
	c := newContainer(id)
	if opts.Group != "" {
		c.SetAttr("data-portal-group", opts.Group)
	}
	for k, v := range opts.Attrs {
		c.SetAttr(k, v)
	}

	m.zNext++
	p := &Portal{
		ID:           id,
		Priority:     opts.Priority,
		Group:        opts.Group,
		ZIndex:       m.zNext,
		Pinned:       opts.Pinned,
		CreatedAt:    now,
		LastActiveAt: now,
		container:    c,
	}
	m.portals[id] = p
	m.stack = append(m.stack, p)
	m.sortLocked()
	m.metrics[id] = &portalMetrics{LastSeen: now}
	if m.tracker != nil {
		m.tokens[id] = m.tracker.Acquire(resmon.KindContainer, id)
	}
	m.mux.Unlock()

	m.decorate(c, opts.Role)
	m.theme(c, opts.Theme)
	m.animate(id, "enter")
	m.track("portal_created", map[string]any{
		"id":       id,
		"priority": opts.Priority.String(),
		"group":    opts.Group,
	})
	return p
}

// Remove detaches the portal. A container still holding children is
// reclaimed asynchronously once it drains, or after the reclaim timeout,
// whichever comes first. Removing an unknown id is a warning, not an error.
func (m *Manager) Remove(id string) bool {
	m.mux.Lock()
	p, ok := m.portals[id]
	if !ok {
		m.mux.Unlock()
		log.WithField("id", id).Warn("remove of unknown portal")
		return false
	}
	token, hasToken := m.detachLocked(p)
	m.mux.Unlock()

	m.reclaim(p, token, hasToken)
	return true
}

// detachLocked drops the portal from the registry, stack, and token map.
// Callers must hold the mutex and then hand the result to reclaim.
func (m *Manager) detachLocked(p *Portal) (resmon.Token, bool) {
	delete(m.portals, p.ID)
	m.removeFromStackLocked(p)
	token, hasToken := m.tokens[p.ID]
	delete(m.tokens, p.ID)
	return token, hasToken
}

func (m *Manager) reclaim(p *Portal, token resmon.Token, hasToken bool) {
	id := p.ID
	m.animate(id, "exit")
	m.track("portal_removed", map[string]any{"id": id})

	c := p.container
	if c.Children() == 0 {
		m.reclaimed(id, token, hasToken)
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		timer := time.NewTimer(m.cfg.reclaimTimeout)
		defer timer.Stop()
		select {
		case <-c.drain():
		case <-timer.C:
			log.WithField("id", id).Warn("portal container reclaim timed out")
		case <-m.done:
		}
		m.reclaimed(id, token, hasToken)
	}()
}

func (m *Manager) reclaimed(id string, token resmon.Token, hasToken bool) {
	if m.tracker != nil && hasToken {
		m.tracker.Release(token)
	}
	m.track("portal_reclaimed", map[string]any{"id": id})
}

// BringToFront gives the portal a fresh maximum z-index.
func (m *Manager) BringToFront(id string) bool {
	m.mux.Lock()
	p, ok := m.portals[id]
	if !ok {
		m.mux.Unlock()
		log.WithField("id", id).Warn("bring-to-front of unknown portal")
		return false
	}
	m.zNext++
	p.ZIndex = m.zNext
	p.LastActiveAt = m.now()
	m.sortLocked()
	m.mux.Unlock()

	m.track("portal_front", map[string]any{"id": id})
	return true
}

// SendToBack pushes the portal below the current minimum.
func (m *Manager) SendToBack(id string) bool {
	m.mux.Lock()
	p, ok := m.portals[id]
	if !ok {
		m.mux.Unlock()
		log.WithField("id", id).Warn("send-to-back of unknown portal")
		return false
	}
	min := p.ZIndex
	for _, other := range m.stack {
		if other.ZIndex < min {
			min = other.ZIndex
		}
	}
	p.ZIndex = min - 1
	m.sortLocked()
	m.mux.Unlock()

	m.track("portal_back", map[string]any{"id": id})
	return true
}

// Touch records an interaction, resetting the idle clock.
func (m *Manager) Touch(id string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	p, ok := m.portals[id]
	if !ok {
		return
	}
	now := m.now()
	p.LastActiveAt = now
	mt, ok := m.metrics[id]
	if !ok {
		mt = &portalMetrics{}
		m.metrics[id] = mt
	}
	mt.Interactions++
	mt.LastSeen = now
}

func (m *Manager) Pin(id string, pinned bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	if p, ok := m.portals[id]; ok {
		p.Pinned = pinned
	}
}

func (m *Manager) Get(id string) (*Portal, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	p, ok := m.portals[id]
	return p, ok
}

// Stack returns the portals front-to-back.
func (m *Manager) Stack() []*Portal {
	m.mux.Lock()
	defer m.mux.Unlock()
	out := make([]*Portal, len(m.stack))
	copy(out, m.stack)
	return out
}

func (m *Manager) Len() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.portals)
}

func (m *Manager) sortLocked() {
	sort.SliceStable(m.stack, func(i, j int) bool {
		if m.stack[i].Priority != m.stack[j].Priority {
			return m.stack[i].Priority > m.stack[j].Priority
		}
		return m.stack[i].ZIndex > m.stack[j].ZIndex
	})
}

func (m *Manager) removeFromStackLocked(p *Portal) {
	for i, other := range m.stack {
		if other == p {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return
		}
	}
}

func (m *Manager) evictLoop() {
	defer m.wg.Done()
	if m.tracker != nil {
		t := m.tracker.Acquire(resmon.KindTimer, "portal-evict")
		defer m.tracker.Release(t)
	}
	ticker := time.NewTicker(m.cfg.evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			evicted := m.EvictIdle()
			if evicted > 0 {
				log.WithField("evicted", evicted).Info("evicted idle portals")
			}
			if m.cfg.heapBudget > 0 && m.memUsage() > m.cfg.heapBudget {
				// under heap pressure the idle window shrinks to one tick
				n := m.evictIdleOlderThan(m.cfg.evictInterval)
				if n > 0 {
					log.WithField("evicted", n).Warn("heap budget exceeded, evicted idle portals")
				}
			}
		}
	}
}

// EvictIdle removes unpinned portals whose last interaction is outside the
// idle window.
func (m *Manager) EvictIdle() int {
	return m.evictIdleOlderThan(m.cfg.idleTimeout)
}

// evictIdleOlderThan checks and detaches victims inside one critical
// section, so a Touch or Pin accepted during the scan is never lost to a
// stale idle decision.
func (m *Manager) evictIdleOlderThan(window time.Duration) int {
	type victim struct {
		p        *Portal
		token    resmon.Token
		hasToken bool
	}
	now := m.now()
	m.mux.Lock()
	var victims []victim
	for _, p := range m.portals {
		if p.Pinned {
			continue
		}
		if now.Sub(p.LastActiveAt) > window {
			token, hasToken := m.detachLocked(p)
			victims = append(victims, victim{p: p, token: token, hasToken: hasToken})
		}
	}
	m.mux.Unlock()
	for _, v := range victims {
		m.reclaim(v.p, v.token, v.hasToken)
	}
	return len(victims)
}

func (m *Manager) metricsLoop() {
	defer m.wg.Done()
	if m.tracker != nil {
		t := m.tracker.Acquire(resmon.KindTimer, "portal-metrics")
		defer m.tracker.Release(t)
	}
	interval := m.cfg.metricsExpire
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.PruneMetrics()
		}
	}
}

// PruneMetrics drops metric records for portals gone longer than the
// metrics window. Live portals keep their records.
func (m *Manager) PruneMetrics() int {
	now := m.now()
	m.mux.Lock()
	defer m.mux.Unlock()
	pruned := 0
	for id, mt := range m.metrics {
		if _, live := m.portals[id]; live {
			continue
		}
		if now.Sub(mt.LastSeen) > m.cfg.metricsExpire {
			delete(m.metrics, id)
			pruned++
		}
	}
	return pruned
}

func (m *Manager) Metrics(id string) (interactions int, lastSeen time.Time, ok bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	mt, ok := m.metrics[id]
	if !ok {
		return 0, time.Time{}, false
	}
	return mt.Interactions, mt.LastSeen, true
}

func (m *Manager) animate(id, kind string) {
	if m.animator == nil {
		m.warnAnimator.Do(func() {
			log.Warn("portal animator not configured, animations disabled")
		})
		return
	}
	m.animator.Enqueue(id, kind)
}

func (m *Manager) track(event string, fields map[string]any) {
	if m.analytics == nil {
		m.warnAnalytics.Do(func() {
			log.Warn("portal analytics not configured, events disabled")
		})
		return
	}
	m.analytics.Track(event, fields)
}

func (m *Manager) theme(c *Container, theme string) {
	if m.themer == nil {
		m.warnThemer.Do(func() {
			log.Warn("portal themer not configured, theming disabled")
		})
		return
	}
	m.themer.Apply(c, theme)
}

func (m *Manager) decorate(c *Container, role string) {
	if m.decorator == nil {
		m.warnDecorator.Do(func() {
			log.Warn("portal decorator not configured, accessibility attrs disabled")
		})
		return
	}
	m.decorator.Decorate(c, role)
}
