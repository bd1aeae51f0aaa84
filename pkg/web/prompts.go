package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/services"
)

// GetTemplates lists templates, optionally filtered by stage type. When both
// stage_type and project_id are given it returns the single template the
// project would resolve, override included.
func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	stageType := c.Query("stage_type")
	projectID := c.Query("project_id")

	if projectID != "" {
		if stageType == "" {
			return badRequest(c, "stage_type is required when project_id is given")
		}

		template, err := h.promptStore.ResolveTemplate(c.Context(), stageType, projectID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.JSON(fiber.Map{"templates": []*models.PromptTemplate{template}})
	}

	templates, err := h.promptStore.Templates(c.Context(), stageType)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"templates": templates})
}

// UpdateTemplate upserts one template. Missing fields keep their stored
// values; a brand-new template must carry a name and at least one prompt.
func (h *APIHandlers) UpdateTemplate(c fiber.Ctx) error {
	stageType := c.Params("stageType")
	promptID := c.Params("promptId")

	if stageType == "" || promptID == "" {
		return badRequest(c, "Stage type and prompt ID are required")
	}

	var req UpdateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.promptStore.Template(c.Context(), stageType, promptID)

	switch {
	case persistence.IsTemplateNotFound(err):
		if req.Name == nil || len(req.Prompts) == 0 {
			return badRequest(c, "New templates need a name and at least one prompt")
		}

		template = &models.PromptTemplate{ID: promptID, StageType: stageType}
	case err != nil:
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		template.Name = *req.Name
	}

	if req.Prompts != nil {
		template.Prompts = req.Prompts
	}

	if req.Variables != nil {
		template.Variables = req.Variables
	}

	if req.IsDefault != nil {
		template.IsDefault = *req.IsDefault
	}

	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := h.promptStore.SaveTemplate(c.Context(), template); err != nil {
		return handleServiceError(c, err)
	}

	h.promptStore.ClearCache(c.Context())

	return c.JSON(template)
}

func (h *APIHandlers) CreateOverride(c fiber.Ctx) error {
	var req OverrideRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	override := &models.PromptOverride{
		ProjectID: req.ProjectID,
		StageType: req.StageType,
		Template:  req.PromptTemplate,
	}

	if err := h.promptStore.SaveOverride(c.Context(), override); err != nil {
		return handleServiceError(c, err)
	}

	h.promptStore.ClearCache(c.Context())

	return c.Status(fiber.StatusCreated).JSON(override)
}

func (h *APIHandlers) DeleteOverride(c fiber.Ctx) error {
	projectID := c.Params("projectId")
	stageType := c.Params("stageType")

	if projectID == "" || stageType == "" {
		return badRequest(c, "Project ID and stage type are required")
	}

	if err := h.promptStore.DeleteOverride(c.Context(), projectID, stageType); err != nil {
		return handleServiceError(c, err)
	}

	h.promptStore.ClearCache(c.Context())

	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateModelConfig rebinds a stage capability to another model. With a
// project ID the change is scoped to that project; otherwise it lands on the
// named template, defaulting to the template the stage currently resolves.
func (h *APIHandlers) UpdateModelConfig(c fiber.Ctx) error {
	var req ModelConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.ProjectID != "" {
		err := h.projectService.SetModelPreference(c.Context(), req.ProjectID, req.StageType, req.Capability, req.ModelConfig)
		if err != nil {
			return handleServiceError(c, err)
		}

		h.promptStore.ClearCache(c.Context())

		return c.SendStatus(fiber.StatusNoContent)
	}

	templateID := req.TemplateID
	if templateID == "" {
		template, err := h.promptStore.ResolveTemplate(c.Context(), req.StageType, "")
		if err != nil {
			return handleServiceError(c, err)
		}

		templateID = template.ID
	}

	err := h.promptStore.UpdateModelConfig(c.Context(), req.StageType, templateID, req.Capability, req.ModelConfig)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.promptStore.ClearCache(c.Context())

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) TestPrompt(c fiber.Ctx) error {
	var req services.PromptTestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.promptTestService.Execute(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}
