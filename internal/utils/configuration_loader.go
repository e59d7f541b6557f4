package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	configurationValidationErrorTemplateConstant    = "invalid configuration: %w"
	fieldViolationTemplateConstant                  = "%s fails %q"
	fieldViolationWithParameterTemplateConstant     = "%s fails %q (%s)"
	fieldViolationSeparatorConstant                 = "; "
	listValueSeparatorConstant                      = ","
)

// ConfigurationLoader layers embedded defaults, an optional configuration file, and environment
// overrides into a typed configuration that is validated with `validate` struct tags.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
	structValidator           *validator.Validate
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationViolationError lists every field that failed validation.
type ConfigurationViolationError struct {
	Violations []string
}

// Error joins the violations into one line.
func (violationError ConfigurationViolationError) Error() string {
	return strings.Join(violationError.Violations, fieldViolationSeparatorConstant)
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
		structValidator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetEmbeddedConfiguration stores defaults merged before any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfiguration = bytes.Clone(configurationData)
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
}

// LoadConfiguration populates targetConfiguration. Precedence from lowest to highest: defaultValues,
// embedded configuration, configuration file, environment. Durations accept Go duration strings and
// list fields accept comma-separated strings.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if mergeError := loader.mergeEmbeddedConfiguration(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, mergeError
	}
	if readError := loader.mergeConfigurationFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant))
	viperInstance.AutomaticEnv()

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	if validationError := loader.validate(targetConfiguration); validationError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationValidationErrorTemplateConstant, validationError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(viperInstance *viper.Viper) error {
	if len(loader.embeddedConfiguration) == 0 {
		return nil
	}
	configurationType := loader.embeddedConfigurationType
	if len(configurationType) == 0 {
		configurationType = loader.configurationType
	}
	viperInstance.SetConfigType(configurationType)
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
		return fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	return nil
}

// mergeConfigurationFile reads the explicit file, or the first named file found on the search paths.
// A missing file on the search paths is not an error; a missing explicit file is.
func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	viperInstance.SetConfigType(loader.configurationType)
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	} else {
		viperInstance.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
	}

	readError := viperInstance.MergeInConfig()
	var notFound viper.ConfigFileNotFoundError
	if readError == nil || errors.As(readError, &notFound) {
		return nil
	}
	return fmt.Errorf(configurationReadErrorTemplateConstant, readError)
}

func (loader *ConfigurationLoader) validate(targetConfiguration any) error {
	validationError := loader.structValidator.Struct(targetConfiguration)
	var invalidValidation *validator.InvalidValidationError
	if validationError == nil || errors.As(validationError, &invalidValidation) {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(validationError, &fieldErrors) {
		return validationError
	}
	violations := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		if len(fieldError.Param()) == 0 {
			violations = append(violations, fmt.Sprintf(fieldViolationTemplateConstant, fieldError.Namespace(), fieldError.Tag()))
			continue
		}
		violations = append(violations, fmt.Sprintf(fieldViolationWithParameterTemplateConstant, fieldError.Namespace(), fieldError.Tag(), fieldError.Param()))
	}
	return ConfigurationViolationError{Violations: violations}
}
