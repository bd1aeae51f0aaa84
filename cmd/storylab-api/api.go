// Package main provides the StoryLab API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/cache"
	"github.com/flarelab/storylab/pkg/eventbus"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/prompts"
	"github.com/flarelab/storylab/pkg/recipe"
	"github.com/flarelab/storylab/pkg/services"
	"github.com/flarelab/storylab/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	promptCache cache.Cache
	registry    *adaptors.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	promptCache cache.Cache,
	registry *adaptors.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		promptCache: promptCache,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	store := prompts.NewStore(a.persistence.Prompts(), a.promptCache, a.logger)
	runner := recipe.NewRunner(recipe.NewExecutor(a.registry, a.logger), a.logger)

	handlers := web.NewAPIHandlers(
		services.NewProjects(a.persistence, a.eventBus, a.logger),
		services.NewRecipes(a.persistence, runner, a.eventBus, a.logger),
		services.NewGeneration(store, a.registry, a.persistence, a.logger),
		services.NewPromptTest(a.registry, a.logger),
		store,
		a.registry,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("StoryLab API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	store := prompts.NewStore(a.persistence.Prompts(), a.promptCache, a.logger)
	if err := store.SeedDefaults(ctx); err != nil {
		return err
	}

	maintenance := services.NewMaintenance(a.persistence, a.promptCache, services.DefaultRunRetention, a.logger)
	if err := maintenance.Start(ctx); err != nil {
		return err
	}

	defer maintenance.Stop()

	return a.App().Listen(":" + strconv.Itoa(port))
}
