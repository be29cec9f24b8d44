package config

import (
	"fmt"
	"io"

	"github.com/ghodss/yaml"
)

// StepData defines the metadata for a step, like step descriptions, parameters, ...
type StepData struct {
	Metadata StepMetadata `json:"metadata"`
	Spec     StepSpec     `json:"spec"`
}

// StepMetadata defines the metadata for a step, like step descriptions, parameters, ...
type StepMetadata struct {
	Name            string  `json:"name"`
	Aliases         []Alias `json:"aliases,omitempty"`
	Description     string  `json:"description"`
	LongDescription string  `json:"longDescription,omitempty"`
}

// StepSpec defines the spec details for a step
type StepSpec struct {
	Inputs StepInputs `json:"inputs,omitempty"`
}

// StepInputs defines the parameters and secrets of a step
type StepInputs struct {
	Parameters []StepParameters `json:"params"`
	Secrets    []StepSecrets    `json:"secrets,omitempty"`
}

// StepParameters defines the parameters for a step
type StepParameters struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	LongDescription string        `json:"longDescription,omitempty"`
	Scope           []string      `json:"scope"`
	Type            string        `json:"type"`
	Mandatory       bool          `json:"mandatory,omitempty"`
	Default         interface{}   `json:"default,omitempty"`
	PossibleValues  []interface{} `json:"possibleValues,omitempty"`
	Aliases         []Alias       `json:"aliases,omitempty"`
	Secret          bool          `json:"secret,omitempty"`
}

// Alias defines a step input parameter alias
type Alias struct {
	Name       string `json:"name,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// StepSecrets defines the secrets to be provided by the step context, e.g. Jenkins pipeline
type StepSecrets struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// StepFilters defines the filter parameters for the different sections
type StepFilters struct {
	All        []string
	General    []string
	Stages     []string
	Steps      []string
	Parameters []string
	Env        []string
}

// ReadPipelineStepData loads step definition in yaml format
func (m *StepData) ReadPipelineStepData(metadata io.ReadCloser) error {
	defer metadata.Close()
	content, err := io.ReadAll(metadata)
	if err != nil {
		return fmt.Errorf("error reading %v: %w", metadata, err)
	}

	err = yaml.Unmarshal(content, &m)
	if err != nil {
		return fmt.Errorf("error unmarshalling: %w", err)
	}
	return nil
}

// GetParameterFilters retrieves all scope dependent parameter filters
func (m *StepData) GetParameterFilters() StepFilters {
	filters := StepFilters{All: []string{"verbose"}, General: []string{"verbose"}, Steps: []string{"verbose"}, Stages: []string{"verbose"}, Parameters: []string{"verbose"}}
	for _, param := range m.Spec.Inputs.Parameters {
		parameterKeys := []string{param.Name}
		filters.All = append(filters.All, parameterKeys...)
		for _, scope := range param.Scope {
			switch scope {
			case "GENERAL":
				filters.General = append(filters.General, parameterKeys...)
			case "STEPS":
				filters.Steps = append(filters.Steps, parameterKeys...)
			case "STAGES":
				filters.Stages = append(filters.Stages, parameterKeys...)
			case "PARAMETERS":
				filters.Parameters = append(filters.Parameters, parameterKeys...)
			case "ENV":
				filters.Env = append(filters.Env, parameterKeys...)
			}
		}
	}
	return filters
}

// GetMandatoryParameters returns the names of all parameters which need a value.
func (m *StepData) GetMandatoryParameters() []string {
	mandatory := []string{}
	for _, param := range m.Spec.Inputs.Parameters {
		if param.Mandatory {
			mandatory = append(mandatory, param.Name)
		}
	}
	return mandatory
}

// GetSecretParameters returns the names of all parameters whose values must not be logged.
func (m *StepData) GetSecretParameters() []string {
	secrets := []string{}
	for _, param := range m.Spec.Inputs.Parameters {
		if param.Secret {
			secrets = append(secrets, param.Name)
		}
	}
	return secrets
}
