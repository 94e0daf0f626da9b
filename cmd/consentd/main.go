package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/doctornoo/pdpa-consent/app/repository"
	"github.com/doctornoo/pdpa-consent/internal/pkg/cache"
	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
	"github.com/doctornoo/pdpa-consent/internal/pkg/database"
	"github.com/doctornoo/pdpa-consent/internal/pkg/env"
	"github.com/doctornoo/pdpa-consent/internal/pkg/metrics"
	"github.com/doctornoo/pdpa-consent/internal/pkg/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()

	db, err := database.SetupDatabase(database.ConfigFromEnv())
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := consent.NewService(repository.NewFactory(db).GetConsentRepository(), consent.Config{
		Location: loadLocation(env.GetEnv("APP_TIMEZONE", "")),
		Timeout:  env.GetEnvDuration("DB_QUERY_TIMEOUT", consent.DefaultTimeout),
		Metrics:  metrics.New(reg),
	})

	app := NewApplication(service, router.Options{
		LimiterStorage: cache.NewLimiterStorage(cache.ConfigFromEnv()),
		LimiterMax:     env.GetEnvInt("RATE_LIMIT_MAX", 60),
		LimiterWindow:  env.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		Gatherer:       reg,
		MetricsUsers:   metricsUsers(),
		OpenAPIFile:    env.GetEnv("OPENAPI_FILE", "./public/docs/v1/openapi.yml"),
		StaticDir:      env.GetEnv("STATIC_DIR", "./public"),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Errorf("graceful shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", ""), env.GetEnv("PORT", "3000"))
	log.Infof("Server running on http://localhost:%s", env.GetEnv("PORT", "3000"))
	if err := app.Listen(addr); err != nil {
		log.Errorf("server stopped: %v", err)
	}

	if err := database.Close(db); err != nil {
		log.Errorf("closing database: %v", err)
	}
}

// NewApplication builds the fiber app with middleware and routes.
func NewApplication(service *consent.Service, opts router.Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pdpa-consent",
		BodyLimit:    64 * 1024,
		ErrorHandler: jsonErrorHandler,
	})

	// recovery, request ids and logging
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${ip} ${method} ${path}\n",
	}))

	// ROUTER
	router.InstallRouter(app, service, opts)

	return app
}

// jsonErrorHandler keeps every error response in the {ok:false} envelope.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"ok":    false,
		"error": err.Error(),
	})
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("unknown APP_TIMEZONE %q, using local time: %v", name, err)
		return time.Local
	}
	return loc
}

func metricsUsers() map[string]string {
	user := env.GetEnv("METRICS_USER", "")
	pass := env.GetEnv("METRICS_PASSWORD", "")
	if user == "" || pass == "" {
		return nil
	}
	return map[string]string{user: pass}
}
