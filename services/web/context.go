package web

import (
	"github.com/gin-gonic/gin"
)

// Context is the render context passed to every view. Templates receive it as
// their dot, so handler data lives under .Data.
type Context struct {
	Data any
	Err  error

	c *gin.Context
}

func NewContext(c *gin.Context) *Context {
	return &Context{
		c: c,
	}
}

func (s *Context) WithData(d any) *Context {
	s.Data = d
	return s
}

func (s *Context) WithErr(err error) *Context {
	s.Err = err
	return s
}

func (s *Context) GetGinContext() *gin.Context {
	return s.c
}

func (s *Context) Path() string {
	if s.c == nil || s.c.Request == nil {
		return ""
	}
	return s.c.Request.URL.Path
}
