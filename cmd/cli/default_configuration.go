package cli

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	presetDirectoryConstant       = "presets"
	presetFileExtensionConstant   = ".yaml"
	unknownPresetTemplateConstant = "unknown preset %q (available: %s)"
	presetListSeparatorConstant   = ", "
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

//go:embed presets/*.yaml
var embeddedPresets embed.FS

// EmbeddedDefaultConfiguration returns the configuration template written by configure --init and its type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	duplicatedContent := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(duplicatedContent, embeddedDefaultConfigurationContent)
	return duplicatedContent, configurationTypeConstant
}

// PresetNames lists the embedded presets in sorted order.
func PresetNames() []string {
	entries, readError := fs.ReadDir(embeddedPresets, presetDirectoryConstant)
	if readError != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), presetFileExtensionConstant))
	}
	sort.Strings(names)
	return names
}

// EmbeddedPreset returns the named preset document.
func EmbeddedPreset(name string) ([]byte, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))
	content, readError := fs.ReadFile(embeddedPresets, path.Join(presetDirectoryConstant, normalizedName+presetFileExtensionConstant))
	if readError != nil || len(normalizedName) == 0 {
		return nil, PresetError{Message: fmt.Sprintf(unknownPresetTemplateConstant, name, strings.Join(PresetNames(), presetListSeparatorConstant))}
	}
	return content, nil
}
