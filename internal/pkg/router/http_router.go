package router

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpRouter struct {
	opts Options
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	h.registerMetricsRoutes(app)
	h.registerDocsRoutes(app)
	h.registerStaticRoutes(app)
}

func (h HttpRouter) registerMetricsRoutes(app *fiber.App) {
	if h.opts.Gatherer != nil {
		app.Get("/metrics/prometheus", adaptor.HTTPHandler(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	if len(h.opts.MetricsUsers) == 0 {
		return
	}
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: h.opts.MetricsUsers,
	}), monitor.New(monitor.Config{Title: "PDPA Consent Metrics"}))
}

func (h HttpRouter) registerDocsRoutes(app *fiber.App) {
	if h.opts.OpenAPIFile == "" {
		return
	}
	if _, err := os.Stat(h.opts.OpenAPIFile); err != nil {
		log.Warnf("[Router] OpenAPI file %s not found, /docs/api disabled", h.opts.OpenAPIFile)
		return
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: h.opts.OpenAPIFile,
		Path:     "v1",
		Title:    "PDPA Consent API",
	}))
}

func (h HttpRouter) registerStaticRoutes(app *fiber.App) {
	if h.opts.StaticDir == "" {
		return
	}
	// consent page and its assets (condition.html)
	app.Static("/", h.opts.StaticDir, fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})
}

func NewHttpRouter(opts Options) *HttpRouter {
	return &HttpRouter{opts: opts}
}
