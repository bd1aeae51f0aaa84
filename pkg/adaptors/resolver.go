package adaptors

import (
	"fmt"

	"github.com/flarelab/storylab/pkg/models"
)

// ResolutionSource names which precedence tier supplied the model config.
type ResolutionSource string

const (
	SourceExplicit       ResolutionSource = "explicit"
	SourceTemplate       ResolutionSource = "template"
	SourceProjectDefault ResolutionSource = "project_default"
	SourceGlobalDefault  ResolutionSource = "global_default"
)

// Resolution is a resolved adaptor and model for one generation request.
type Resolution struct {
	Adaptor   Adaptor
	AdaptorID string
	ModelID   string
	Source    ResolutionSource
}

// ResolveRequest carries the inputs of one resolution.
//
// Precedence, highest first: Explicit (caller pinned a config for this call),
// the template's per-capability model config, the project's stage preference,
// and finally the registry's global default for the capability.
type ResolveRequest struct {
	Capability models.Capability
	StageType  string
	Explicit   *models.ModelConfig
	Template   *models.PromptConfig
	Project    *models.Project
}

// Resolve picks the adaptor and model for a request.
func (r *Registry) Resolve(request ResolveRequest) (*Resolution, error) {
	if request.Explicit != nil {
		return r.resolution(*request.Explicit, request.Capability, SourceExplicit)
	}

	if request.Template != nil && request.Template.ModelConfig != nil {
		return r.resolution(*request.Template.ModelConfig, request.Capability, SourceTemplate)
	}

	if request.Project != nil {
		key := models.ModelPreferenceKey(request.StageType, request.Capability)
		if config, ok := request.Project.ModelPreferences[key]; ok {
			return r.resolution(config, request.Capability, SourceProjectDefault)
		}
	}

	config, err := r.Default(request.Capability)
	if err != nil {
		return nil, err
	}

	return r.resolution(config, request.Capability, SourceGlobalDefault)
}

func (r *Registry) resolution(config models.ModelConfig, capability models.Capability, source ResolutionSource) (*Resolution, error) {
	adaptor, err := r.Get(config.AdaptorID)
	if err != nil {
		return nil, fmt.Errorf("resolution from %s: %w", source, err)
	}

	if !Supports(adaptor, capability) {
		return nil, &UnsupportedCapabilityError{AdaptorID: config.AdaptorID, Capability: capability}
	}

	return &Resolution{
		Adaptor:   adaptor,
		AdaptorID: config.AdaptorID,
		ModelID:   config.ModelID,
		Source:    source,
	}, nil
}
