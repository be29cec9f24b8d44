package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	piperhttp "github.com/whitehorses/servicebus-plugin/pkg/http"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/validation"
)

// GeneralConfigOptions contains all global configuration options for sbplugin binary
type GeneralConfigOptions struct {
	CorrelationID  string
	CustomConfig   string
	DefaultConfig  []string //ordered list of default configurations. Can be filePath or URL
	ParametersJSON string
	StageName      string
	StepConfigJSON string
	Verbose        bool
	HookConfig     HookConfiguration
}

// HookConfiguration contains the configuration for supported hooks, so far only Sentry is supported.
type HookConfiguration struct {
	SentryConfig SentryConfiguration `json:"sentry,omitempty"`
}

// SentryConfiguration defines the configuration options for the Sentry logging system
type SentryConfiguration struct {
	Dsn string `json:"dsn,omitempty"`
}

const defaultDefaultConfig = ".pipeline/defaults.yaml"

var rootCmd = &cobra.Command{
	Use:   "sbplugin",
	Short: "Builds and deploys Oracle Service Bus configuration archives",
	Long: `
sbplugin packages Oracle Service Bus projects into sbar archives and deploys them
to a Service Bus domain through a change session.
Every build goal is available as a step which can be used within CI/CD systems as well as on a developer's machine.
`,
}

// GeneralConfig contains global configuration flags for sbplugin binary
var GeneralConfig GeneralConfigOptions

// Execute is the starting point of the sbplugin command line tool
func Execute() {
	rootCmd.AddCommand(ConfigCommand())
	rootCmd.AddCommand(VersionCommand())
	rootCmd.AddCommand(ServicebusPackageCommand())
	rootCmd.AddCommand(ServicebusArchiveCommand())
	rootCmd.AddCommand(ServicebusUnarchiveCommand())
	rootCmd.AddCommand(ServicebusDeployCommand())

	addRootFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		log.Entry().WithError(err).Fatal("configuration error")
	}
}

func addRootFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.CorrelationID, "correlationID", os.Getenv("PIPER_correlationID"), "ID for unique identification of a pipeline run")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.CustomConfig, "customConfig", ".pipeline/config.yml", "Path to the pipeline configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&GeneralConfig.DefaultConfig, "defaultConfig", []string{defaultDefaultConfig}, "Default configurations, passed as path to yaml file")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.ParametersJSON, "parametersJSON", os.Getenv("PIPER_parametersJSON"), "Parameters to be considered in JSON format")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.StageName, "stageName", os.Getenv("STAGE_NAME"), "Name of the stage for which configuration should be included")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.StepConfigJSON, "stepConfigJSON", os.Getenv("PIPER_stepConfigJSON"), "Step configuration in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&GeneralConfig.Verbose, "verbose", "v", false, "verbose output")
}

// PrepareConfig reads the step configuration from all sources and decodes it into options
func PrepareConfig(cmd *cobra.Command, metadata *config.StepData, stepName string, options interface{}, openFile func(s string) (io.ReadCloser, error)) error {
	if len(GeneralConfig.CorrelationID) == 0 {
		GeneralConfig.CorrelationID = uuid.New().String()
	}

	filters := metadata.GetParameterFilters()

	// add flags to filter, otherwise they would not be considered
	flagValues := config.AvailableFlagValues(cmd, &filters)

	var myConfig config.Config
	var stepConfig config.StepConfig

	if len(GeneralConfig.StepConfigJSON) != 0 {
		// ignore config & defaults in favor of passed stepConfigJSON
		stepConfig = config.GetStepConfigWithJSON(flagValues, GeneralConfig.StepConfigJSON, filters)
		log.Entry().Infof("Project config: passed via JSON")
	} else {
		var customConfig io.ReadCloser
		var err error
		if exists(GeneralConfig.CustomConfig) {
			if customConfig, err = openFile(GeneralConfig.CustomConfig); err != nil {
				return errors.Wrapf(err, "config: open configuration file '%v' failed", GeneralConfig.CustomConfig)
			}
		} else {
			log.Entry().Infof("Project config: NONE ('%v' does not exist)", GeneralConfig.CustomConfig)
		}

		defaultConfig := []io.ReadCloser{}
		for _, f := range GeneralConfig.DefaultConfig {
			fc, err := openFile(f)
			// only create error for non-default values
			if err != nil {
				if f != defaultDefaultConfig {
					return errors.Wrapf(err, "config: getting defaults failed: '%v'", f)
				}
				continue
			}
			defaultConfig = append(defaultConfig, fc)
			log.Entry().Infof("Project defaults: '%v'", f)
		}

		stepConfig, err = myConfig.GetStepConfig(flagValues, GeneralConfig.ParametersJSON, customConfig, defaultConfig, filters, metadata.Spec.Inputs.Parameters, GeneralConfig.StageName, stepName)
		if err != nil {
			return errors.Wrap(err, "retrieving step configuration failed")
		}
	}

	if err := decodeConfig(myConfig.Hooks, &GeneralConfig.HookConfig); err != nil {
		return errors.Wrap(err, "failed to read hook configuration")
	}

	if verbose, ok := stepConfig.Config["verbose"].(bool); ok && verbose {
		log.SetVerbose(verbose)
		GeneralConfig.Verbose = verbose
	}

	for _, secret := range metadata.GetSecretParameters() {
		if value, ok := stepConfig.Config[secret].(string); ok {
			log.RegisterSecret(value)
		}
	}

	config.MarkFlagsWithValue(cmd, stepConfig)

	if err := decodeConfig(stepConfig.Config, options); err != nil {
		return errors.Wrap(err, "failed to decode step configuration")
	}
	return nil
}

// validateOptions checks the decoded options against their validate tags.
func validateOptions(options interface{}) error {
	validator, err := validation.New()
	if err != nil {
		return err
	}
	if err := validator.ValidateStruct(options); err != nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		return err
	}
	return nil
}

// registerHooks registers the logging hooks configured for the current run.
func registerHooks(stepName string) {
	log.RegisterHook(&log.FatalHook{CorrelationID: GeneralConfig.CorrelationID, Path: ".pipeline/commonPipelineEnvironment"})
	if len(GeneralConfig.HookConfig.SentryConfig.Dsn) > 0 {
		sentryHook := log.NewSentryHook(GeneralConfig.HookConfig.SentryConfig.Dsn, GeneralConfig.CorrelationID)
		log.RegisterHook(&sentryHook)
	}
	log.Entry().Debugf("Hooks registered for step %v, correlation ID %v", stepName, GeneralConfig.CorrelationID)
}

func decodeConfig(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func exists(name string) bool {
	if isURL(name) {
		return true
	}
	_, err := os.Stat(name)
	return err == nil
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// OpenPiperFile provides functionality to retrieve configuration files from the file system or an http(s) location.
func OpenPiperFile(name string) (io.ReadCloser, error) {
	if !isURL(name) {
		return os.Open(name)
	}
	client := &piperhttp.Client{}
	response, err := client.SendRequest(http.MethodGet, name, nil, nil, nil)
	if err != nil {
		if response != nil && response.Body != nil {
			response.Body.Close()
		}
		return nil, fmt.Errorf("failed to download %v: %w", name, err)
	}
	return response.Body, nil
}
