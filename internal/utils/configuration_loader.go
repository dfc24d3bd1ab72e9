package utils

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// ConfigurationKeyDelimiterConstant separates nested configuration keys. Repository names may contain dots.
	ConfigurationKeyDelimiterConstant               = "::"
	environmentKeySeparatorConstant                 = "_"
	listSeparatorConstant                           = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration %s: %w"
	durationParseErrorTemplateConstant              = "invalid duration %q: %w"
)

// ConfigurationLayer is an embedded configuration document merged beneath user files.
type ConfigurationLayer struct {
	Name string
	Data []byte
	Type string
}

// ConfigurationLoader wraps Viper to load layered configuration, files, and environment overrides.
type ConfigurationLoader struct {
	configurationName      string
	configurationType      string
	environmentPrefix      string
	searchPaths            []string
	environmentKeyReplacer *strings.Replacer
	embeddedLayers         []ConfigurationLayer
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
	LayersApplied  []string
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	duplicatedSearchPaths := make([]string, len(searchPaths))
	copy(duplicatedSearchPaths, searchPaths)

	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            duplicatedSearchPaths,
		environmentKeyReplacer: strings.NewReplacer(ConfigurationKeyDelimiterConstant, environmentKeySeparatorConstant),
	}
}

// AddEmbeddedLayer appends an embedded document; later layers take precedence over earlier ones.
func (loader *ConfigurationLoader) AddEmbeddedLayer(layer ConfigurationLayer) {
	if loader == nil || len(layer.Data) == 0 {
		return
	}
	duplicatedData := make([]byte, len(layer.Data))
	copy(duplicatedData, layer.Data)
	loader.embeddedLayers = append(loader.embeddedLayers, ConfigurationLayer{
		Name: layer.Name,
		Data: duplicatedData,
		Type: strings.TrimSpace(layer.Type),
	})
}

// ResetEmbeddedLayers discards previously added embedded layers.
func (loader *ConfigurationLoader) ResetEmbeddedLayers() {
	if loader == nil {
		return
	}
	loader.embeddedLayers = nil
}

// LoadConfiguration populates targetConfiguration from defaults, embedded layers, a configuration file, and the environment.
// An explicitly provided configuration file must exist; searched files are optional.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.NewWithOptions(viper.KeyDelimiter(ConfigurationKeyDelimiterConstant))
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	loadedConfiguration := LoadedConfiguration{}
	for _, layer := range loader.embeddedLayers {
		layerType := loader.configurationType
		if len(layer.Type) > 0 {
			layerType = layer.Type
		}
		viperInstance.SetConfigType(layerType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(layer.Data)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, layer.Name, mergeError)
		}
		loadedConfiguration.LayersApplied = append(loadedConfiguration.LayersApplied, layer.Name)
	}
	viperInstance.SetConfigType(loader.configurationType)

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	if loader.environmentKeyReplacer != nil {
		viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	}
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if len(configurationFilePath) > 0 || !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	unmarshalError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
	)))
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	loadedConfiguration.ConfigFileUsed = viperInstance.ConfigFileUsed()
	return loadedConfiguration, nil
}

// secondsDurationHookFunc decodes bare numbers as seconds and strings as Go durations.
func secondsDurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
		if targetType != durationType || sourceType == durationType {
			return data, nil
		}

		switch typedValue := data.(type) {
		case int:
			return time.Duration(typedValue) * time.Second, nil
		case int64:
			return time.Duration(typedValue) * time.Second, nil
		case uint64:
			return time.Duration(typedValue) * time.Second, nil
		case float64:
			return time.Duration(typedValue * float64(time.Second)), nil
		case string:
			trimmedValue := strings.TrimSpace(typedValue)
			if seconds, parseError := strconv.ParseFloat(trimmedValue, 64); parseError == nil {
				return time.Duration(seconds * float64(time.Second)), nil
			}
			parsedDuration, parseError := time.ParseDuration(trimmedValue)
			if parseError != nil {
				return nil, fmt.Errorf(durationParseErrorTemplateConstant, typedValue, parseError)
			}
			return parsedDuration, nil
		default:
			return data, nil
		}
	}
}
