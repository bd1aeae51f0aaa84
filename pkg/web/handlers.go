// Package web provides the HTTP handlers for the StoryLab REST API.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/prompts"
	"github.com/flarelab/storylab/pkg/services"
)

type APIHandlers struct {
	projectService    *services.Projects
	recipeService     *services.Recipes
	generationService *services.Generation
	promptTestService *services.PromptTest
	promptStore       *prompts.Store
	registry          *adaptors.Registry
	validator         *validator.Validate
}

func NewAPIHandlers(
	projectService *services.Projects,
	recipeService *services.Recipes,
	generationService *services.Generation,
	promptTestService *services.PromptTest,
	promptStore *prompts.Store,
	registry *adaptors.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		projectService:    projectService,
		recipeService:     recipeService,
		generationService: generationService,
		promptTestService: promptTestService,
		promptStore:       promptStore,
		registry:          registry,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	adaptorHealth, defaults := h.registry.Health(c.Context())
	repositoryCheck, repOk := h.projectService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "StoryLab API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "StoryLab API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"adaptors":   adaptorHealth,
			"defaults":   defaults,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Projects

func (h *APIHandlers) CreateProject(c fiber.Ctx) error {
	var req services.CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.projectService.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetProjects(c fiber.Ctx) error {
	projects, err := h.projectService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"projects": projects})
}

func (h *APIHandlers) GetProject(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Project ID is required")
	}

	project, err := h.projectService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) DeleteProject(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Project ID is required")
	}

	if err := h.projectService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CompleteStage(c fiber.Ctx) error {
	id := c.Params("id")
	stageName := c.Params("stageName")

	if id == "" || stageName == "" {
		return badRequest(c, "Project ID and stage name are required")
	}

	var req CompleteStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	project, err := h.projectService.CompleteStage(c.Context(), id, stageName, req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) FailStage(c fiber.Ctx) error {
	project, err := h.projectService.FailStage(c.Context(), c.Params("id"), c.Params("stageName"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) RetryStage(c fiber.Ctx) error {
	project, err := h.projectService.RetryStage(c.Context(), c.Params("id"), c.Params("stageName"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(project)
}
