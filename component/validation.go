package component

import (
	"encoding/json"
	"fmt"
	"strings"

	fbperrors "github.com/c360/fbpcore/errors"
)

// Security limits for graph descriptions accepted from the control surface,
// applied before any raw configuration reaches a factory.
const (
	MaxNameLength = 256
	MaxJSONSize   = 1024 * 1024 // 1MB
	maxJSONDepth  = 10
	maxArraySize  = 1000
)

// ValidateName checks a component or network name for the characters the
// control plane and graph-description formats accept: alphanumeric, dash,
// underscore, dot.
func ValidateName(name string) error {
	if name == "" {
		return fbperrors.WrapInvalid(fmt.Errorf("name must not be empty"), "Registry", "ValidateName")
	}
	if len(name) > MaxNameLength {
		return fbperrors.WrapInvalid(fmt.Errorf("name exceeds %d characters", MaxNameLength), "Registry", "ValidateName")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return fbperrors.WrapInvalid(fmt.Errorf("name %q contains an invalid character", name), "Registry", "ValidateName")
		}
	}
	return nil
}

// ConfigValidator performs defense-in-depth validation of raw component
// configuration JSON before it reaches a Factory, guarding against
// maliciously deep or oversized graph descriptions submitted through the
// control surface.
type ConfigValidator struct {
	maxDepth     int
	maxArraySize int
}

// NewConfigValidator creates a validator with safe defaults.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{maxDepth: maxJSONDepth, maxArraySize: maxArraySize}
}

// ValidateConfig rejects oversized, too-deep, or malformed configuration
// JSON before it is handed to a component Factory.
func (v *ConfigValidator) ValidateConfig(raw json.RawMessage) error {
	if len(raw) > MaxJSONSize {
		return fbperrors.WrapInvalid(fmt.Errorf("config size %d exceeds maximum %d", len(raw), MaxJSONSize), "ConfigValidator", "ValidateConfig")
	}
	if len(raw) == 0 {
		return nil
	}

	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()
	var parsed any
	if err := decoder.Decode(&parsed); err != nil {
		return fbperrors.WrapInvalid(err, "ConfigValidator", "ValidateConfig")
	}
	return v.validateValue(parsed, 0)
}

func (v *ConfigValidator) validateValue(value any, depth int) error {
	if depth > v.maxDepth {
		return fbperrors.WrapInvalid(fmt.Errorf("config JSON depth %d exceeds maximum %d", depth, v.maxDepth), "ConfigValidator", "validateValue")
	}
	switch val := value.(type) {
	case []any:
		if len(val) > v.maxArraySize {
			return fbperrors.WrapInvalid(fmt.Errorf("array size %d exceeds maximum %d", len(val), v.maxArraySize), "ConfigValidator", "validateValue")
		}
		for _, elem := range val {
			if err := v.validateValue(elem, depth+1); err != nil {
				return err
			}
		}
	case map[string]any:
		for key, elem := range val {
			if err := ValidateName(key); err != nil && key != "" {
				// object keys are looser than component names; only reject
				// control characters, not dots/dashes restrictions.
				if strings.ContainsAny(key, "\x00\n\r\t") {
					return fbperrors.WrapInvalid(fmt.Errorf("config key %q contains a control character", key), "ConfigValidator", "validateValue")
				}
			}
			if err := v.validateValue(elem, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateFactoryConfig is the entry point a Registry.Create calls before
// invoking a component's Factory.
func ValidateFactoryConfig(raw json.RawMessage) error {
	return NewConfigValidator().ValidateConfig(raw)
}
