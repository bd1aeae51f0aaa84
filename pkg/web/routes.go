package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts every API endpoint on the app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	prompts := app.Group("/prompts")
	prompts.Get("/templates", handlers.GetTemplates)
	prompts.Put("/templates/:stageType/:promptId", handlers.UpdateTemplate)
	prompts.Post("/override", handlers.CreateOverride)
	prompts.Delete("/override/:projectId/:stageType", handlers.DeleteOverride)
	prompts.Put("/model-config", handlers.UpdateModelConfig)
	prompts.Post("/test", handlers.TestPrompt)

	recipes := app.Group("/recipes")
	recipes.Post("/", handlers.CreateRecipe)
	recipes.Get("/", handlers.GetRecipes)
	recipes.Get("/:id", handlers.GetRecipe)
	recipes.Delete("/:id", handlers.DeleteRecipe)
	recipes.Post("/:id/run", handlers.RunRecipe)
	recipes.Post("/:id/test-node", handlers.TestRecipeNode)
	recipes.Get("/:id/runs", handlers.GetRecipeRuns)

	projects := app.Group("/projects")
	projects.Post("/", handlers.CreateProject)
	projects.Get("/", handlers.GetProjects)
	projects.Get("/:id", handlers.GetProject)
	projects.Delete("/:id", handlers.DeleteProject)
	projects.Post("/:id/stages/:stageName/complete", handlers.CompleteStage)
	projects.Post("/:id/stages/:stageName/fail", handlers.FailStage)
	projects.Post("/:id/stages/:stageName/retry", handlers.RetryStage)
	projects.Post("/:id/generate/:kind", handlers.Generate)

	app.Get("/health", handlers.HealthCheck)
}
