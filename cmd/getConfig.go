package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

type configCommandOptions struct {
	output       string //output format: json or yaml
	stepMetadata string //metadata to be considered, file path or URL; overrides the built-in metadata of stepName
	stepName     string
	openFile     func(s string) (io.ReadCloser, error)
	stdout       io.Writer
}

var configOptions configCommandOptions

// stepMetadata returns the built-in metadata of all steps of the binary
func stepMetadata() map[string]config.StepData {
	return map[string]config.StepData{
		"servicebusPackage":   servicebusPackageMetadata(),
		"servicebusArchive":   servicebusArchiveMetadata(),
		"servicebusUnarchive": servicebusUnarchiveMetadata(),
		"servicebusDeploy":    servicebusDeployMetadata(),
	}
}

// ConfigCommand is the entry command for loading the configuration of a pipeline step
func ConfigCommand() *cobra.Command {
	configOptions.openFile = OpenPiperFile
	configOptions.stdout = os.Stdout
	var createConfigCmd = &cobra.Command{
		Use:   "getConfig",
		Short: "Loads the step configuration respecting defaults and parameters.",
		PreRun: func(cmd *cobra.Command, _ []string) {
			log.SetStepName("getConfig")
			log.SetVerbose(GeneralConfig.Verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := generateConfig(); err != nil {
				log.SetErrorCategory(log.ErrorConfiguration)
				return err
			}
			return nil
		},
	}

	addConfigFlags(createConfigCmd)
	return createConfigCmd
}

func generateConfig() error {
	metadata, err := resolveMetadata()
	if err != nil {
		return err
	}

	var myConfig config.Config

	var customConfig io.ReadCloser
	if exists(GeneralConfig.CustomConfig) {
		if customConfig, err = configOptions.openFile(GeneralConfig.CustomConfig); err != nil {
			return errors.Wrap(err, "config: open failed")
		}
	}

	defaultConfig := []io.ReadCloser{}
	for _, f := range GeneralConfig.DefaultConfig {
		fc, err := configOptions.openFile(f)
		// only create error for non-default values
		if err != nil {
			if f != defaultDefaultConfig {
				return errors.Wrapf(err, "config: getting defaults failed: '%v'", f)
			}
			continue
		}
		defaultConfig = append(defaultConfig, fc)
	}

	stepConfig, err := myConfig.GetStepConfig(nil, GeneralConfig.ParametersJSON, customConfig, defaultConfig, metadata.GetParameterFilters(), metadata.Spec.Inputs.Parameters, GeneralConfig.StageName, configOptions.stepName)
	if err != nil {
		return errors.Wrap(err, "getting step config failed")
	}

	for _, secret := range metadata.GetSecretParameters() {
		delete(stepConfig.Config, secret)
	}

	var output string
	switch configOptions.output {
	case "yaml":
		output, err = config.GetYAML(stepConfig.Config)
	default:
		output, err = config.GetJSON(stepConfig.Config)
	}
	if err != nil {
		return errors.Wrap(err, "failed to serialize step config")
	}

	_, err = fmt.Fprintln(configOptions.stdout, output)
	return err
}

func resolveMetadata() (config.StepData, error) {
	var metadata config.StepData
	if len(configOptions.stepMetadata) > 0 {
		metadataFile, err := configOptions.openFile(configOptions.stepMetadata)
		if err != nil {
			return metadata, errors.Wrap(err, "metadata: open failed")
		}
		if err := metadata.ReadPipelineStepData(metadataFile); err != nil {
			return metadata, errors.Wrap(err, "metadata: read failed")
		}
		return metadata, nil
	}

	metadata, ok := stepMetadata()[configOptions.stepName]
	if !ok {
		return metadata, errors.Errorf("unknown step '%v'", configOptions.stepName)
	}
	return metadata, nil
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configOptions.output, "output", "json", "Defines the output format, json or yaml")
	cmd.Flags().StringVar(&configOptions.stepMetadata, "stepMetadata", "", "Step metadata, passed as path to yaml")
	cmd.Flags().StringVar(&configOptions.stepName, "stepName", "", "Name of the step for which configuration should be included")

	cmd.MarkFlagRequired("stepName")
}
