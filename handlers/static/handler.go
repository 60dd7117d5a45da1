package static

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"
)

const (
	assetsPathFlag = "assets-path"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   assetsPathFlag,
			Usage:  "path to static assets",
			Value:  "./assets",
			EnvVar: "ASSETS_PATH",
		},
	)
}

func RegisterHandler(c *cli.Context, r *gin.Engine) {
	dir := c.String(assetsPathFlag)
	r.Static("/assets", dir)
	r.StaticFile("/favicon.ico", dir+"/favicon.ico")
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}
