package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carries the infrastructure the routers attach to.
type Options struct {
	// LimiterStorage is shared limiter state; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	LimiterMax     int
	LimiterWindow  time.Duration

	// Gatherer backs /metrics/prometheus; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// MetricsUsers protects /metrics with basic auth; empty disables the endpoint.
	MetricsUsers map[string]string

	// OpenAPIFile is served under /docs/api/v1 when the file exists.
	OpenAPIFile string
	// StaticDir holds the consent page assets; empty disables static serving.
	StaticDir string
}

func InstallRouter(app *fiber.App, service *consent.Service, opts Options) {
	// API routes first so the static handler never shadows them.
	setup(app, NewApiRouter(service, opts), NewHttpRouter(opts))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
