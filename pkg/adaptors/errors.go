package adaptors

import (
	"errors"
	"fmt"

	"github.com/flarelab/storylab/pkg/models"
)

// ErrAdaptorNotRegistered is returned when a resolution names an unknown adaptor.
var ErrAdaptorNotRegistered = errors.New("adaptor not registered")

// ErrNoDefaultAdaptor is returned when no adaptor is configured for a capability.
var ErrNoDefaultAdaptor = errors.New("no default adaptor for capability")

// UnsupportedCapabilityError is returned when a call reaches an adaptor that
// does not implement the requested capability.
type UnsupportedCapabilityError struct {
	AdaptorID  string
	Capability models.Capability
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("adaptor %q does not support %s generation", e.AdaptorID, e.Capability)
}

// IsUnsupportedCapability reports whether err is an UnsupportedCapabilityError.
func IsUnsupportedCapability(err error) bool {
	var target *UnsupportedCapabilityError

	return errors.As(err, &target)
}

// UnavailableError wraps a transport or provider failure so callers can tell
// a broken backend apart from a bad request.
type UnavailableError struct {
	AdaptorID string
	Model     string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("adaptor %q (model %q) unavailable: %v", e.AdaptorID, e.Model, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var target *UnavailableError

	return errors.As(err, &target)
}
