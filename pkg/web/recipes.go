package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/flarelab/storylab/pkg/services"
)

func (h *APIHandlers) CreateRecipe(c fiber.Ctx) error {
	var document map[string]any
	if err := c.Bind().JSON(&document); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.recipeService.Create(c.Context(), document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetRecipes(c fiber.Ctx) error {
	recipes, err := h.recipeService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"recipes": recipes})
}

func (h *APIHandlers) GetRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	recipe, err := h.recipeService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(recipe)
}

func (h *APIHandlers) DeleteRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	if err := h.recipeService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RunRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	var req RunRecipeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	run, result, err := h.recipeService.Run(c.Context(), id, req.ProjectID, req.ExternalInput, nil)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"run": run, "result": result})
}

func (h *APIHandlers) TestRecipeNode(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	var req services.TestNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.recipeService.TestNode(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetRecipeRuns(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	runs, err := h.recipeService.Runs(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"runs": runs})
}
