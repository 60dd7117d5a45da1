package main

import (
	"html/template"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	hc "github.com/cinescope/web-ui/handlers/common"
	"github.com/cinescope/web-ui/handlers/home"
	"github.com/cinescope/web-ui/handlers/movie"
	hpr "github.com/cinescope/web-ui/handlers/presence"
	hp "github.com/cinescope/web-ui/handlers/progress"
	"github.com/cinescope/web-ui/handlers/search"
	hsh "github.com/cinescope/web-ui/handlers/share"
	sta "github.com/cinescope/web-ui/handlers/static"
	"github.com/cinescope/web-ui/handlers/status"
	"github.com/cinescope/web-ui/handlers/watchlist"
	"github.com/cinescope/web-ui/services/apiclient"
	"github.com/cinescope/web-ui/services/catalog"
	"github.com/cinescope/web-ui/services/common"
	"github.com/cinescope/web-ui/services/flow"
	"github.com/cinescope/web-ui/services/job"
	"github.com/cinescope/web-ui/services/portal"
	"github.com/cinescope/web-ui/services/presence"
	"github.com/cinescope/web-ui/services/progress"
	"github.com/cinescope/web-ui/services/resmon"
	"github.com/cinescope/web-ui/services/share"
	tpl "github.com/cinescope/web-ui/services/template"
	"github.com/cinescope/web-ui/services/tmdb"
	"github.com/cinescope/web-ui/services/vitals"
	w "github.com/cinescope/web-ui/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterPprofFlags(c.Flags)
	c.Flags = cs.RegisterRedisClientFlags(c.Flags)
	c.Flags = common.RegisterFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = tpl.RegisterFlags(c.Flags)
	c.Flags = sta.RegisterFlags(c.Flags)
	c.Flags = apiclient.RegisterFlags(c.Flags)
	c.Flags = tmdb.RegisterFlags(c.Flags)
	c.Flags = catalog.RegisterPageCacheFlags(c.Flags)
	c.Flags = catalog.RegisterDetailsCacheFlags(c.Flags)
	c.Flags = portal.RegisterFlags(c.Flags)
	c.Flags = job.RegisterFlags(c.Flags)
	c.Flags = share.RegisterFlags(c.Flags)
	c.Flags = presence.RegisterFlags(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := apiclient.New(c)

	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	err := pgMigrate(c)
	if err != nil {
		return err
	}

	// Setting template renderer
	re := multitemplate.NewRenderer()

	// Setting TemplateManager
	tm := tpl.NewManager[*w.Context](c, re).
		WithFuncs(template.FuncMap{
			"add": func(a, b int) int { return a + b },
			"sub": func(a, b int) int { return a - b },
			"dict": func(values ...any) (map[string]any, error) {
				if len(values)%2 != 0 {
					return nil, errors.New("dict requires an even number of arguments")
				}
				d := make(map[string]any, len(values)/2)
				for i := 0; i < len(values); i += 2 {
					k, ok := values[i].(string)
					if !ok {
						return nil, errors.New("dict keys must be strings")
					}
					d[k] = values[i+1]
				}
				return d, nil
			},
		})

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Pprof
	pprof := cs.NewPprof(c)
	if pprof != nil {
		servers = append(servers, pprof)
		defer pprof.Close()
	}

	// Setting Gin
	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.HTMLRender = re

	// Setting Vitals
	v := vitals.New()
	r.Use(v.Middleware())

	// Setting Sessions
	store := cookie.NewStore([]byte(c.String(common.SessionSecretFlag)))
	r.Use(sessions.Sessions("session", store))

	// Setting CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{c.String(common.DomainFlag)},
		AllowMethods:     hc.AnyMethods,
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Setting Web
	web, err := w.New(c, r)
	if err != nil {
		return err
	}
	servers = append(servers, web)
	defer web.Close()

	// Setting ResourceTracker
	tracker := resmon.NewTracker()
	webToken := tracker.Acquire(resmon.KindListener, "web")
	defer tracker.Release(webToken)

	// Setting Redis
	redis := cs.NewRedisClient(c)
	defer redis.Close()

	// Setting PortalManager
	pm := portal.New(c,
		portal.WithAnimator(portal.NewQueueAnimator(64)),
		portal.WithAnalytics(portal.LogAnalytics{}),
		portal.WithThemer(portal.AttrThemer{}),
		portal.WithDecorator(portal.AriaDecorator{}),
		portal.WithTracker(tracker),
	)
	err = pm.Init()
	if err != nil {
		return err
	}
	defer pm.Close()

	// Setting OverlayFlows
	fr := flow.NewRegistry()

	// Setting JobPool
	pool := job.New(c)
	err = pool.Init()
	if err != nil {
		return err
	}
	defer pool.Close()

	// Setting Api
	sapi := tmdb.New(c, cl)

	// Setting Catalog
	var cat *catalog.Catalog
	if sapi != nil {
		cat = catalog.New(sapi, catalog.NewPageCache(c, redis), catalog.NewDetailsCache(c))
	} else {
		log.Warn("TMDB api key is not set, catalog browsing is disabled")
	}

	// Setting Presence
	pr := presence.New(c, redis)

	// Setting Static
	sta.RegisterHandler(c, r)

	if cat != nil {
		// Setting HomeHandler
		home.RegisterHandler(r, tm, cat, pm)

		// Setting MovieHandler
		movie.RegisterHandler(r, tm, cat, pm, fr, pg)

		// Setting SearchHandler
		search.RegisterHandler(r, tm, cat)

		// Setting ShareHandler
		hsh.RegisterHandler(r, cat, share.New(c, pool), cl)
	}

	// Setting WatchlistHandler
	watchlist.RegisterHandler(r, tm, pg)

	// Setting ProgressHandler
	hp.RegisterHandler(r, progress.New(pool))

	// Setting PresenceHandler
	hpr.RegisterHandler(r, pr)

	// Setting StatusHandler
	status.RegisterHandler(r, tm, v, tracker, pm, pr)

	// Render templates
	err = tm.Init()
	if err != nil {
		return err
	}

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}
