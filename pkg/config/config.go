package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

// EnvPrefix is prepended to parameter names when reading them from the environment.
const EnvPrefix = "PIPER_"

// Config defines the structure of the config files
type Config struct {
	General map[string]interface{}            `json:"general"`
	Stages  map[string]map[string]interface{} `json:"stages"`
	Steps   map[string]map[string]interface{} `json:"steps"`
	Hooks   map[string]interface{}            `json:"hooks,omitempty"`
}

// StepConfig defines the structure for merged step configuration
type StepConfig struct {
	Config map[string]interface{}
}

// ReadConfig loads config and returns its content
func (c *Config) ReadConfig(configuration io.ReadCloser) error {
	defer configuration.Close()

	content, err := io.ReadAll(configuration)
	if err != nil {
		return errors.Wrapf(err, "error reading %v", configuration)
	}

	err = yaml.Unmarshal(content, &c)
	if err != nil {
		return NewParseError(fmt.Sprintf("error unmarshalling %q: %v", content, err))
	}
	return nil
}

// GetStepConfig provides merged step configuration using defaults, config, if available
//
// Precedence from low to high: parameter defaults of the step metadata, default files,
// general/steps/stages sections of the project configuration, environment variables,
// parameters in JSON format, command line flags.
func (c *Config) GetStepConfig(flagValues map[string]interface{}, paramJSON string, configuration io.ReadCloser, defaults []io.ReadCloser, filters StepFilters, parameters []StepParameters, stageName, stepName string) (StepConfig, error) {
	var stepConfig StepConfig
	var d PipelineDefaults

	if configuration != nil {
		if err := c.ReadConfig(configuration); err != nil {
			switch err.(type) {
			case *ParseError:
				return StepConfig{}, errors.Wrap(err, "failed to parse custom pipeline configuration")
			default:
				//ignoring unavailability of config file since considered optional
			}
		}
	}
	c.ApplyAliasConfig(parameters, filters, stageName, stepName)

	if err := d.ReadPipelineDefaults(defaults); err != nil {
		switch err.(type) {
		case *ParseError:
			return StepConfig{}, errors.Wrap(err, "failed to parse pipeline default configuration")
		default:
			//ignoring unavailability of defaults since considered optional
		}
	}

	// zero: parameter defaults declared by the step itself
	stepConfig.mixIn(parameterDefaults(parameters), filters.All)

	// first: read defaults & merge general -> steps (-> general -> steps ...)
	for _, def := range d.Defaults {
		def.ApplyAliasConfig(parameters, filters, stageName, stepName)
		stepConfig.mixIn(def.General, filters.General)
		stepConfig.mixIn(def.Steps[stepName], filters.Steps)
	}

	// second: read config & merge - general -> steps -> stages
	stepConfig.mixIn(c.General, filters.General)
	stepConfig.mixIn(c.Steps[stepName], filters.Steps)
	stepConfig.mixIn(c.Stages[stageName], filters.Stages)

	// third: merge parameters provided via env vars
	stepConfig.mixIn(envValues(filters.All), filters.All)

	// fourth: if parameters are provided in JSON format merge them
	if len(paramJSON) != 0 {
		var params map[string]interface{}
		if err := json.Unmarshal([]byte(paramJSON), &params); err != nil {
			log.Entry().Warnf("failed to parse parameters from environment: %v", err)
		} else {
			setParamValueFromAlias(params, filters.Parameters, parameters)
			stepConfig.mixIn(params, filters.Parameters)
		}
	}

	// fifth: merge command line flags
	if flagValues != nil {
		stepConfig.mixIn(flagValues, filters.Parameters)
	}

	return stepConfig, nil
}

// GetStepConfigWithJSON provides merged step configuration using a provided stepConfigJSON with additional flags provided
func GetStepConfigWithJSON(flagValues map[string]interface{}, stepConfigJSON string, filters StepFilters) StepConfig {
	var stepConfig StepConfig

	stepConfigMap := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stepConfigJSON), &stepConfigMap); err != nil {
		log.Entry().Warnf("invalid stepConfigJSON: %v", err)
	}
	stepConfig.mixIn(stepConfigMap, filters.All)

	if flagValues != nil {
		stepConfig.mixIn(flagValues, filters.Parameters)
	}
	return stepConfig
}

// ApplyAliasConfig adds configuration values of aliased parameters under their current name.
func (c *Config) ApplyAliasConfig(parameters []StepParameters, filters StepFilters, stageName, stepName string) {
	if c.General != nil {
		setParamValueFromAlias(c.General, filters.General, parameters)
	}
	if c.Stages[stageName] != nil {
		setParamValueFromAlias(c.Stages[stageName], filters.Stages, parameters)
	}
	if c.Steps[stepName] != nil {
		setParamValueFromAlias(c.Steps[stepName], filters.Steps, parameters)
	}
}

func setParamValueFromAlias(configMap map[string]interface{}, filter []string, parameters []StepParameters) {
	for _, p := range parameters {
		if _, ok := configMap[p.Name]; ok || !sliceContains(filter, p.Name) {
			continue
		}
		for _, a := range p.Aliases {
			if value, ok := configMap[a.Name]; ok && value != nil {
				configMap[p.Name] = value
				if a.Deprecated {
					log.Entry().Warnf("DEPRECATION NOTICE: old step configuration parameter name %v used. Please use %v instead.", a.Name, p.Name)
				}
				break
			}
		}
	}
}

// GetJSON returns JSON representation of an object
func GetJSON(data interface{}) (string, error) {

	result, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrapf(err, "error marshalling json: %v", err)
	}
	return string(result), nil
}

// GetYAML returns YAML representation of an object
func GetYAML(data interface{}) (string, error) {

	result, err := yaml.Marshal(data)
	if err != nil {
		return "", errors.Wrapf(err, "error marshalling yaml: %v", err)
	}
	return string(result), nil
}

func parameterDefaults(parameters []StepParameters) map[string]interface{} {
	defaults := map[string]interface{}{}
	for _, param := range parameters {
		if param.Default != nil {
			defaults[param.Name] = param.Default
		}
	}
	return defaults
}

func envValues(filter []string) map[string]interface{} {
	vals := map[string]interface{}{}
	for _, param := range filter {
		if envVal := os.Getenv(EnvPrefix + param); len(envVal) != 0 {
			vals[param] = envVal
		}
	}
	return vals
}

func (s *StepConfig) mixIn(mergeData map[string]interface{}, filter []string) {

	if s.Config == nil {
		s.Config = map[string]interface{}{}
	}

	s.Config = merge(s.Config, filterMap(mergeData, filter))
}

func filterMap(data map[string]interface{}, filter []string) map[string]interface{} {
	result := map[string]interface{}{}

	if data == nil {
		data = map[string]interface{}{}
	}

	for key, value := range data {
		if value != nil && (len(filter) == 0 || sliceContains(filter, key)) {
			result[key] = value
		}
	}
	return result
}

func merge(base, overlay map[string]interface{}) map[string]interface{} {

	result := map[string]interface{}{}

	if base == nil {
		base = map[string]interface{}{}
	}

	for key, value := range base {
		result[key] = value
	}

	for key, value := range overlay {
		if val, ok := value.(map[string]interface{}); ok {
			if valBaseKey, ok := base[key].(map[string]interface{}); !ok {
				result[key] = merge(map[string]interface{}{}, val)
			} else {
				result[key] = merge(valBaseKey, val)
			}
		} else {
			result[key] = value
		}
	}
	return result
}

func sliceContains(slice []string, find string) bool {
	for _, elem := range slice {
		if elem == find {
			return true
		}
	}
	return false
}
