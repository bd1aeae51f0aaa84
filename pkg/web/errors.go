package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/prompts"
	"github.com/flarelab/storylab/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service layer errors onto problem+json responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err) || errors.Is(err, prompts.ErrNoDefaultTemplate):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return conflict(c, err.Error())

	case services.IsNotFoundError(err) || errors.Is(err, adaptors.ErrAdaptorNotRegistered):
		return resourceNotFound(c, err)

	case adaptors.IsUnavailable(err):
		var unavailable *adaptors.UnavailableError
		errors.As(err, &unavailable)

		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("adaptor_unavailable").
			WithDetail(unavailable.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	default:
		return internalError(c, err)
	}
}

// resourceNotFound picks a specific problem type per missing resource kind.
func resourceNotFound(c fiber.Ctx, err error) error {
	problemType := "not_found"

	switch {
	case persistence.IsProjectNotFound(err):
		problemType = "project_not_found"
	case persistence.IsTemplateNotFound(err) || persistence.IsOverrideNotFound(err):
		problemType = "prompt_not_found"
	case persistence.IsRecipeNotFound(err):
		problemType = "recipe_not_found"
	case persistence.IsRunNotFound(err):
		problemType = "run_not_found"
	}

	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(err.Error())

	return c.Status(fiber.StatusNotFound).JSON(problem)
}
