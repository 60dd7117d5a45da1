package template

import (
	"html/template"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	templatesDirFlag = "templates-dir"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   templatesDirFlag,
			Usage:  "templates directory",
			Value:  "templates",
			EnvVar: "TEMPLATES_DIR",
		},
	)
}

// Context is what views are rendered against.
type Context interface {
	GetGinContext() *gin.Context
}

// Manager registers view sets against layouts and compiles them into a
// multitemplate renderer on Init. Handlers register views at construction
// time; Init runs once after all handlers are wired.
type Manager[C Context] struct {
	re    multitemplate.Renderer
	dir   string
	funcs template.FuncMap
	regs  []*registration
}

type registration struct {
	pattern string
	layout  string
}

func NewManager[C Context](c *cli.Context, re multitemplate.Renderer) *Manager[C] {
	return &Manager[C]{
		re:    re,
		dir:   c.String(templatesDirFlag),
		funcs: template.FuncMap{},
	}
}

func (s *Manager[C]) WithFuncs(f template.FuncMap) *Manager[C] {
	for k, v := range f {
		s.funcs[k] = v
	}
	return s
}

// MustRegisterViews declares a glob of views (relative to templates/views,
// without extension) to be compiled at Init time.
func (s *Manager[C]) MustRegisterViews(pattern string) Builder[C] {
	reg := &registration{
		pattern: pattern,
		layout:  "main",
	}
	s.regs = append(s.regs, reg)
	return Builder[C]{
		m:   s,
		reg: reg,
	}
}

func (s *Manager[C]) Init() error {
	partials, err := filepath.Glob(filepath.Join(s.dir, "partials", "*.html"))
	if err != nil {
		return errors.Wrap(err, "glob partials")
	}
	done := map[string]bool{}
	for _, reg := range s.regs {
		layout := filepath.Join(s.dir, "layouts", reg.layout+".html")
		views, err := filepath.Glob(filepath.Join(s.dir, "views", reg.pattern+".html"))
		if err != nil {
			return errors.Wrap(err, "glob views")
		}
		if len(views) == 0 {
			return errors.Errorf("no views found for pattern %v", reg.pattern)
		}
		for _, v := range views {
			name, err := s.viewName(reg.layout, v)
			if err != nil {
				return err
			}
			if done[name] {
				continue
			}
			done[name] = true
			files := append([]string{layout}, partials...)
			files = append(files, v)
			s.re.AddFromFilesFuncs(name, s.funcs, files...)
		}
	}
	return nil
}

func (s *Manager[C]) viewName(layout, path string) (string, error) {
	rel, err := filepath.Rel(filepath.Join(s.dir, "views"), path)
	if err != nil {
		return "", errors.Wrap(err, "resolve view name")
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".html")
	return layout + ":" + rel, nil
}

// Builder produces render-ready views for a registered set.
type Builder[C Context] struct {
	m   *Manager[C]
	reg *registration
}

func (b Builder[C]) WithLayout(name string) Builder[C] {
	b.reg.layout = name
	return b
}

func (b Builder[C]) Build(name string) *View[C] {
	return &View[C]{
		name: b.reg.layout + ":" + name,
	}
}

// View renders a single compiled template.
type View[C Context] struct {
	name string
}

func (v *View[C]) HTML(code int, ctx C) {
	ctx.GetGinContext().HTML(code, v.name, ctx)
}
