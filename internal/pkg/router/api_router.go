package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/doctornoo/pdpa-consent/app/controllers"
	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
)

const (
	defaultLimiterMax    = 60
	defaultLimiterWindow = time.Minute
	healthRoute          = "/api/health"
)

type ApiRouter struct {
	service *consent.Service
	opts    Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(h.limiterConfig()))

	api.Get("/health", controllers.NewHealthController(h.service).HandleHealth)

	pdpa := api.Group("/pdpa")
	pdpa.Post("/consent", controllers.NewConsentController(h.service).HandleRecordConsent)
}

func (h ApiRouter) limiterConfig() limiter.Config {
	limit := h.opts.LimiterMax
	if limit <= 0 {
		limit = defaultLimiterMax
	}
	window := h.opts.LimiterWindow
	if window <= 0 {
		window = defaultLimiterWindow
	}

	return limiter.Config{
		Max:          limit,
		Expiration:   window,
		Storage:      h.opts.LimiterStorage,
		KeyGenerator: controllers.GetClientIP,
		// orchestrator probes must never be throttled
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == healthRoute
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok":      false,
				"message": "too many requests",
			})
		},
	}
}

func NewApiRouter(service *consent.Service, opts Options) *ApiRouter {
	return &ApiRouter{service: service, opts: opts}
}
