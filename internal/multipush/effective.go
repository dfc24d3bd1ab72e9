package multipush

import (
	"fmt"
	"sort"
	"strings"
)

const (
	emptyPushServicesMessageConstant     = "push service list is empty"
	emptyPrimaryServiceMessageConstant   = "primary service is not set"
	primaryNotPushedTemplateConstant     = "primary service %q is not in push services [%s]"
	duplicatePushServiceTemplateConstant = "push service %q is listed more than once"
	unknownServiceTemplateConstant       = "service %q is not registered"
	pushServicesSeparatorConstant        = ", "
)

// ServiceLookup reports whether a service identifier is registered.
type ServiceLookup interface {
	Contains(identifier string) bool
}

// EffectiveConfig is the primary and ordered push services resolved for one repository.
type EffectiveConfig struct {
	RepositoryName string
	PrimaryService string
	PushServices   []string
	Overridden     bool
}

// DesiredServices returns the push services as a set.
func (effective EffectiveConfig) DesiredServices() map[string]struct{} {
	desired := make(map[string]struct{}, len(effective.PushServices))
	for _, identifier := range effective.PushServices {
		desired[identifier] = struct{}{}
	}
	return desired
}

// ResolveEffectiveConfig applies the repository's override, if any, to the global selection.
// Override push services replace the global list entirely; override primary replaces the global primary.
func ResolveEffectiveConfig(repositoryName string, global GlobalConfiguration, overrides map[string]Override, registry ServiceLookup) (EffectiveConfig, error) {
	effective := EffectiveConfig{
		RepositoryName: repositoryName,
		PrimaryService: normalizeServiceIdentifier(global.PrimaryService),
		PushServices:   normalizeServiceList(global.PushServices),
	}

	if override, found := findOverride(repositoryName, overrides); found {
		effective.Overridden = true
		if override.PushServices != nil {
			effective.PushServices = normalizeServiceList(override.PushServices)
		}
		if primary := normalizeServiceIdentifier(override.PrimaryService); len(primary) > 0 {
			effective.PrimaryService = primary
		}
	}

	if validationError := effective.validate(registry); validationError != nil {
		return EffectiveConfig{}, validationError
	}
	return effective, nil
}

func (effective EffectiveConfig) validate(registry ServiceLookup) error {
	invalid := func(format string, arguments ...any) error {
		return InvalidConfigError{Repository: effective.RepositoryName, Message: fmt.Sprintf(format, arguments...)}
	}

	if len(effective.PushServices) == 0 {
		return invalid(emptyPushServicesMessageConstant)
	}
	if len(effective.PrimaryService) == 0 {
		return invalid(emptyPrimaryServiceMessageConstant)
	}

	seen := make(map[string]struct{}, len(effective.PushServices))
	for _, identifier := range effective.PushServices {
		if _, duplicate := seen[identifier]; duplicate {
			return invalid(duplicatePushServiceTemplateConstant, identifier)
		}
		seen[identifier] = struct{}{}
		if registry != nil && !registry.Contains(identifier) {
			return invalid(unknownServiceTemplateConstant, identifier)
		}
	}

	if _, pushed := seen[effective.PrimaryService]; !pushed {
		return invalid(primaryNotPushedTemplateConstant, effective.PrimaryService, strings.Join(effective.PushServices, pushServicesSeparatorConstant))
	}
	return nil
}

// findOverride matches exactly first and then case-insensitively, since configuration keys may arrive lowercased.
func findOverride(repositoryName string, overrides map[string]Override) (Override, bool) {
	if override, found := overrides[repositoryName]; found {
		return override, true
	}

	overrideNames := make([]string, 0, len(overrides))
	for overrideName := range overrides {
		overrideNames = append(overrideNames, overrideName)
	}
	sort.Strings(overrideNames)

	for _, overrideName := range overrideNames {
		if strings.EqualFold(strings.TrimSpace(overrideName), strings.TrimSpace(repositoryName)) {
			return overrides[overrideName], true
		}
	}
	return Override{}, false
}

func normalizeServiceList(identifiers []string) []string {
	normalized := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		if trimmed := normalizeServiceIdentifier(identifier); len(trimmed) > 0 {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
