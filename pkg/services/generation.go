package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flarelab/storylab/pkg/adaptors"
	"github.com/flarelab/storylab/pkg/aijson"
	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/models"
	"github.com/flarelab/storylab/pkg/otelhelper"
	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/prompts"
	"github.com/flarelab/storylab/pkg/stages"
	"github.com/flarelab/storylab/pkg/streaming"
)

// Generation kinds accepted by the streaming endpoint.
const (
	KindThemes     = "themes"
	KindImages     = "images"
	KindAnimations = "animations"
)

const defaultGenerateCount = 4

// kindSpec binds a generation kind to its stage type and capability.
type kindSpec struct {
	stageType  string
	capability models.Capability
	payloadKey string
}

var kinds = map[string]kindSpec{
	KindThemes:     {stageType: "themes", capability: models.CapabilityText, payloadKey: "themes"},
	KindImages:     {stageType: "composites", capability: models.CapabilityImage, payloadKey: "composites"},
	KindAnimations: {stageType: "animations", capability: models.CapabilityVideo, payloadKey: "animations"},
}

// GenerateRequest configures one streamed generation.
type GenerateRequest struct {
	Count     int            `json:"count"`
	Variables map[string]any `json:"variables"`
}

// Generation runs the streamed per-item generation loops.
type Generation struct {
	store       *prompts.Store
	registry    *adaptors.Registry
	persistence persistence.Persistence
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewGeneration creates the generation service.
func NewGeneration(store *prompts.Store, registry *adaptors.Registry, p persistence.Persistence, logger *slog.Logger) *Generation {
	return &Generation{
		store:       store,
		registry:    registry,
		persistence: p,
		logger:      logger.With("module", "generation"),
		tracer:      otel.Tracer("storylab/generation"),
	}
}

// PreparedGeneration holds everything a generation loop needs after the
// pre-flight checks have passed.
type PreparedGeneration struct {
	kind       string
	project    *models.Project
	config     *models.PromptConfig
	resolution *adaptors.Resolution
	req        GenerateRequest
}

// Prepare runs the pre-flight checks for one generation: the kind must be
// known, the project must exist, its upstream stage must be completed and a
// prompt plus adaptor must resolve. Errors here are returned before any event
// is emitted, so HTTP handlers can still answer with a status code.
func (g *Generation) Prepare(ctx context.Context, projectID, kind string, req GenerateRequest) (*PreparedGeneration, error) {
	spec, ok := kinds[kind]
	if !ok {
		return nil, &ServiceError{Op: "Generate", Message: kind, Err: ErrUnknownKind}
	}

	project, err := g.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if pipeline, ok := models.PipelineByID(project.PipelineID); ok && pipeline.StageIndex(spec.stageType) >= 0 {
		if err := stages.EnsureStageReady(project, pipeline, spec.stageType); err != nil {
			return nil, err
		}
	}

	config, err := g.store.GetPromptByCapability(ctx, spec.stageType, projectID, spec.capability)
	if err != nil {
		return nil, &ServiceError{Op: "Generate", Message: err.Error(), Err: ErrInvalidRequest}
	}

	resolution, err := g.registry.Resolve(adaptors.ResolveRequest{
		Capability: spec.capability,
		StageType:  spec.stageType,
		Template:   config,
		Project:    project,
	})
	if err != nil {
		return nil, err
	}

	if req.Count <= 0 {
		req.Count = defaultGenerateCount
	}

	return &PreparedGeneration{
		kind:       kind,
		project:    project,
		config:     config,
		resolution: resolution,
		req:        req,
	}, nil
}

// Run streams a prepared generation into the sink. Once streaming has started
// every failure is reported on the stream instead of as a returned error:
// item failures as non-fatal error events, anything unrecoverable as a fatal
// error event.
func (g *Generation) Run(ctx context.Context, prepared *PreparedGeneration, sink streaming.Sink) error {
	spec := kinds[prepared.kind]

	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "generation."+prepared.kind,
		attribute.String(otelhelper.ProjectIDKey, prepared.project.ID),
		attribute.String(otelhelper.StageTypeKey, spec.stageType),
		attribute.String(otelhelper.AdaptorIDKey, prepared.resolution.AdaptorID),
		attribute.String(otelhelper.ModelIDKey, prepared.resolution.ModelID))
	defer span.End()

	switch prepared.kind {
	case KindThemes:
		return g.generateThemes(ctx, prepared.project, prepared.config, prepared.resolution, prepared.req, sink)
	case KindImages:
		return g.generateImages(ctx, prepared.project, prepared.config, prepared.resolution, prepared.req, sink)
	default:
		return g.generateAnimations(ctx, prepared.project, prepared.config, prepared.resolution, prepared.req, sink)
	}
}

// Generate runs the loop for one kind, streaming progress into the sink.
func (g *Generation) Generate(ctx context.Context, projectID, kind string, req GenerateRequest, sink streaming.Sink) error {
	prepared, err := g.Prepare(ctx, projectID, kind, req)
	if err != nil {
		return err
	}

	return g.Run(ctx, prepared, sink)
}

// generateThemes asks the text model for the whole batch at once and fans the
// parsed items out as individual theme events.
func (g *Generation) generateThemes(ctx context.Context, project *models.Project, config *models.PromptConfig, resolution *adaptors.Resolution, req GenerateRequest, sink streaming.Sink) error {
	g.send(sink, events.Start{ProjectID: project.ID, Stage: "themes", Total: req.Count})

	vars := mergeVars(req.Variables, map[string]any{"count": req.Count})
	prompt := prompts.Render(config.UserPromptTemplate, vars)

	result, err := resolution.Adaptor.GenerateText(ctx, prompt, adaptors.Options{
		Model:          resolution.ModelID,
		SystemPrompt:   prompts.Render(config.SystemPrompt, vars),
		ResponseFormat: models.OutputFormatJSON,
	})
	if err != nil {
		g.send(sink, events.Error{Message: err.Error(), Fatal: true})

		return nil
	}

	items := asList(aijson.Extract(result.Text))

	for i, item := range items {
		g.send(sink, events.Theme{Index: i, Theme: item})
		g.send(sink, events.Progress{Current: i + 1, Total: len(items)})
	}

	g.persistItems(ctx, project.ID, "themes", items, sink)
	g.send(sink, events.Complete{Count: len(items)})

	return nil
}

// generateImages composites one image per subject, continuing past failed
// items.
func (g *Generation) generateImages(ctx context.Context, project *models.Project, config *models.PromptConfig, resolution *adaptors.Resolution, req GenerateRequest, sink streaming.Sink) error {
	subjects := subjectList(req)

	g.send(sink, events.Start{ProjectID: project.ID, Stage: "composites", Total: len(subjects)})

	items := make([]any, 0, len(subjects))

	for i, subject := range subjects {
		vars := mergeVars(req.Variables, map[string]any{"subject": subject, "index": i})
		prompt := prompts.Render(config.UserPromptTemplate, vars)

		result, err := resolution.Adaptor.GenerateImage(ctx, prompt, adaptors.Options{Model: resolution.ModelID})
		if err != nil {
			g.logger.WarnContext(ctx, "Image generation failed",
				"project_id", project.ID, "subject", subject, "error", err)
			g.send(sink, events.Error{Message: fmt.Sprintf("image %d: %v", i, err), Fatal: false})

			continue
		}

		item := map[string]any{"subject": subject, "url": result.URL, "model": result.Model}
		items = append(items, item)

		g.send(sink, events.Image{Index: i, Subject: fmt.Sprintf("%v", subject), URL: result.URL, Model: result.Model})
		g.send(sink, events.Progress{Current: i + 1, Total: len(subjects)})
	}

	g.persistItems(ctx, project.ID, "composites", items, sink)
	g.send(sink, events.Complete{Count: len(items)})

	return nil
}

// generateAnimations animates the project's composites, continuing past
// failed items.
func (g *Generation) generateAnimations(ctx context.Context, project *models.Project, config *models.PromptConfig, resolution *adaptors.Resolution, req GenerateRequest, sink streaming.Sink) error {
	composites := compositeList(project, req)

	g.send(sink, events.Start{ProjectID: project.ID, Stage: "animations", Total: len(composites)})

	items := make([]any, 0, len(composites))

	for i, composite := range composites {
		vars := mergeVars(req.Variables, map[string]any{"composite": composite, "index": i})
		prompt := prompts.Render(config.UserPromptTemplate, vars)

		result, err := resolution.Adaptor.GenerateVideo(ctx, prompt, adaptors.Options{Model: resolution.ModelID})
		if err != nil {
			g.logger.WarnContext(ctx, "Animation generation failed",
				"project_id", project.ID, "index", i, "error", err)
			g.send(sink, events.Error{Message: fmt.Sprintf("animation %d: %v", i, err), Fatal: false})

			continue
		}

		item := map[string]any{"url": result.URL, "model": result.Model}
		items = append(items, item)

		g.send(sink, events.Animation{Index: i, URL: result.URL, Model: result.Model})
		g.send(sink, events.Progress{Current: i + 1, Total: len(composites)})
	}

	g.persistItems(ctx, project.ID, "animations", items, sink)
	g.send(sink, events.Complete{Count: len(items)})

	return nil
}

func (g *Generation) persistItems(ctx context.Context, projectID, key string, items []any, sink streaming.Sink) {
	if err := g.persistence.Projects().MergePayload(ctx, projectID, map[string]any{key: items}); err != nil {
		g.logger.ErrorContext(ctx, "Failed to persist generated items",
			"project_id", projectID, "key", key, "error", err)
		g.send(sink, events.Error{Message: "failed to persist generated items", Fatal: false})
	}
}

func (g *Generation) send(sink streaming.Sink, event streaming.Event) {
	if sink == nil {
		return
	}

	if err := sink.Send(event); err != nil {
		g.logger.Debug("Dropped progress event", "event_type", string(event.GetType()))
	}
}

func mergeVars(base map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))

	for k, v := range base {
		merged[k] = v
	}

	for k, v := range extra {
		merged[k] = v
	}

	return merged
}

func asList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}

	return []any{value}
}

func subjectList(req GenerateRequest) []any {
	if subjects, ok := req.Variables["subjects"].([]any); ok && len(subjects) > 0 {
		return subjects
	}

	subjects := make([]any, req.Count)
	for i := range subjects {
		subjects[i] = i
	}

	return subjects
}

func compositeList(project *models.Project, req GenerateRequest) []any {
	if composites, ok := project.Payload["composites"].([]any); ok && len(composites) > 0 {
		return composites
	}

	composites := make([]any, req.Count)
	for i := range composites {
		composites[i] = i
	}

	return composites
}
