package adaptors

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/flarelab/storylab/pkg/models"
)

// Registry holds the registered adaptors and the global per-capability
// defaults. Registration happens at startup; lookups afterwards are
// read-only, so no locking is needed.
type Registry struct {
	logger   *slog.Logger
	adaptors map[string]Adaptor
	defaults map[models.Capability]models.ModelConfig
}

// NewRegistry creates an empty adaptor registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "adaptors"),
		adaptors: make(map[string]Adaptor),
		defaults: make(map[models.Capability]models.ModelConfig),
	}
}

// Register adds an adaptor under its own ID.
func (r *Registry) Register(adaptor Adaptor) {
	r.adaptors[adaptor.ID()] = adaptor
	r.logger.Info("Registered adaptor", "adaptor_id", adaptor.ID(), "capabilities", adaptor.Capabilities())
}

// SetDefault sets the global fallback adaptor and model for a capability.
func (r *Registry) SetDefault(capability models.Capability, config models.ModelConfig) error {
	adaptor, ok := r.adaptors[config.AdaptorID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAdaptorNotRegistered, config.AdaptorID)
	}

	if !Supports(adaptor, capability) {
		return &UnsupportedCapabilityError{AdaptorID: config.AdaptorID, Capability: capability}
	}

	r.defaults[capability] = config

	return nil
}

// Get returns a registered adaptor by ID.
func (r *Registry) Get(id string) (Adaptor, error) {
	adaptor, ok := r.adaptors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdaptorNotRegistered, id)
	}

	return adaptor, nil
}

// Default returns the global default config for a capability.
func (r *Registry) Default(capability models.Capability) (models.ModelConfig, error) {
	config, ok := r.defaults[capability]
	if !ok {
		return models.ModelConfig{}, fmt.Errorf("%w: %s", ErrNoDefaultAdaptor, capability)
	}

	return config, nil
}

// IDs lists the registered adaptor IDs in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adaptors))
	for id := range r.adaptors {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// AdaptorHealth describes one adaptor in the health report.
type AdaptorHealth struct {
	ID           string              `json:"id"`
	Capabilities []models.Capability `json:"capabilities"`
}

// Health reports the registered adaptors and the configured defaults.
func (r *Registry) Health(_ context.Context) ([]AdaptorHealth, map[models.Capability]models.ModelConfig) {
	report := make([]AdaptorHealth, 0, len(r.adaptors))

	for _, id := range r.IDs() {
		adaptor := r.adaptors[id]
		report = append(report, AdaptorHealth{ID: id, Capabilities: adaptor.Capabilities()})
	}

	defaults := make(map[models.Capability]models.ModelConfig, len(r.defaults))
	for capability, config := range r.defaults {
		defaults[capability] = config
	}

	return report, defaults
}
