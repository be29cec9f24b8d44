package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

type servicebusDeployOptions struct {
	ServerURL                       string `json:"serverUrl,omitempty" validate:"url"`
	ServerUsername                  string `json:"serverUsername,omitempty"`
	ServerPassword                  string `json:"serverPassword,omitempty"`
	ProjectName                     string `json:"projectName,omitempty"`
	OutputDirectory                 string `json:"outputDirectory,omitempty"`
	ArchiveName                     string `json:"archiveName,omitempty"`
	PreserveCredentials             bool   `json:"preserveCredentials,omitempty"`
	PreserveEnvValues               bool   `json:"preserveEnvValues,omitempty"`
	PreserveOperationalValues       bool   `json:"preserveOperationalValues,omitempty"`
	PreserveSecurityAndPolicyConfig bool   `json:"preserveSecurityAndPolicyConfig,omitempty"`
	PreserveAccessControlPolicies   bool   `json:"preserveAccessControlPolicies,omitempty"`
	CustomizationFile               string `json:"customizationFile,omitempty"`
	ActivateSession                 bool   `json:"activateSession,omitempty"`
	DiscardOnError                  bool   `json:"discardOnError,omitempty"`
	DiscardOnFailure                bool   `json:"discardOnFailure,omitempty"`
	RequestTimeout                  int    `json:"requestTimeout,omitempty" validate:"min=1"`
	MaxRetries                      int    `json:"maxRetries,omitempty" validate:"min=0"`
}

// ServicebusDeployCommand Deploys an sbar archive to a Service Bus domain
func ServicebusDeployCommand() *cobra.Command {
	const STEP_NAME = "servicebusDeploy"

	metadata := servicebusDeployMetadata()
	var stepConfig servicebusDeployOptions

	var createServicebusDeployCmd = &cobra.Command{
		Use:   STEP_NAME,
		Short: "Deploys an sbar archive to a Service Bus domain",
		Long: `Imports the sbar archive into a new change session of the Service Bus domain,
optionally applies a customization file and activates the session.
A session with conflicts is not activated and is discarded when ` + "`" + `discardOnError` + "`" + ` is set.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetStepName(STEP_NAME)
			log.SetVerbose(GeneralConfig.Verbose)

			err := PrepareConfig(cmd, &metadata, STEP_NAME, &stepConfig, OpenPiperFile)
			if err != nil {
				log.SetErrorCategory(log.ErrorConfiguration)
				return err
			}
			log.RegisterSecret(stepConfig.ServerPassword)

			registerHooks(STEP_NAME)

			return validateOptions(stepConfig)
		},
		Run: func(_ *cobra.Command, _ []string) {
			servicebusDeploy(stepConfig)
			log.Entry().Info("SUCCESS")
		},
	}

	addServicebusDeployFlags(createServicebusDeployCmd, &stepConfig)
	return createServicebusDeployCmd
}

func addServicebusDeployFlags(cmd *cobra.Command, stepConfig *servicebusDeployOptions) {
	cmd.Flags().StringVar(&stepConfig.ServerURL, "serverUrl", os.Getenv("PIPER_serverUrl"), "URL of the administration server of the Service Bus domain, e.g. http://osb.example.com:7001.")
	cmd.Flags().StringVar(&stepConfig.ServerUsername, "serverUsername", os.Getenv("PIPER_serverUsername"), "User for the administration server.")
	cmd.Flags().StringVar(&stepConfig.ServerPassword, "serverPassword", os.Getenv("PIPER_serverPassword"), "Password for the administration server.")
	cmd.Flags().StringVar(&stepConfig.ProjectName, "projectName", os.Getenv("PIPER_projectName"), "Name of the project, used in the name of the change session.")
	cmd.Flags().StringVar(&stepConfig.OutputDirectory, "outputDirectory", `target`, "Directory containing the sbar archive.")
	cmd.Flags().StringVar(&stepConfig.ArchiveName, "archiveName", `sbconfig.sbar`, "File name of the sbar archive.")
	cmd.Flags().BoolVar(&stepConfig.PreserveCredentials, "preserveCredentials", true, "Keep the credentials of existing resources.")
	cmd.Flags().BoolVar(&stepConfig.PreserveEnvValues, "preserveEnvValues", true, "Keep the environment values of existing resources.")
	cmd.Flags().BoolVar(&stepConfig.PreserveOperationalValues, "preserveOperationalValues", true, "Keep the operational settings of existing resources.")
	cmd.Flags().BoolVar(&stepConfig.PreserveSecurityAndPolicyConfig, "preserveSecurityAndPolicyConfig", true, "Keep the security and policy configuration of existing resources.")
	cmd.Flags().BoolVar(&stepConfig.PreserveAccessControlPolicies, "preserveAccessControlPolicies", true, "Keep the access control policies of existing resources.")
	cmd.Flags().StringVar(&stepConfig.CustomizationFile, "customizationFile", os.Getenv("PIPER_customizationFile"), "Customization file applied to the session after the import.")
	cmd.Flags().BoolVar(&stepConfig.ActivateSession, "activateSession", true, "Activate the session after the import.")
	cmd.Flags().BoolVar(&stepConfig.DiscardOnError, "discardOnError", true, "Discard the session when conflicts prevent its activation.")
	cmd.Flags().BoolVar(&stepConfig.DiscardOnFailure, "discardOnFailure", false, "Discard the session when the import, the customization or the activation fails.")
	cmd.Flags().IntVar(&stepConfig.RequestTimeout, "requestTimeout", 120, "Timeout in seconds of a single request to the administration server.")
	cmd.Flags().IntVar(&stepConfig.MaxRetries, "maxRetries", 3, "Number of retries of failed read requests to the administration server.")

	cmd.MarkFlagRequired("serverUrl")
	cmd.MarkFlagRequired("serverUsername")
	cmd.MarkFlagRequired("serverPassword")
	cmd.MarkFlagRequired("projectName")
}

// retrieve step metadata
func servicebusDeployMetadata() config.StepData {
	var theMetaData = config.StepData{
		Metadata: config.StepMetadata{
			Name:        "servicebusDeploy",
			Description: "Deploys an sbar archive to a Service Bus domain",
		},
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Secrets: []config.StepSecrets{
					{Name: "serverCredentialsId", Description: "Jenkins 'Username with password' credentials ID containing username and password to authenticate to the administration server.", Type: "jenkins"},
				},
				Parameters: []config.StepParameters{
					{
						Name:      "serverUrl",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{{Name: "osbUrl", Deprecated: true}},
					},
					{
						Name:      "serverUsername",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "serverPassword",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
						Secret:    true,
					},
					{
						Name:      "projectName",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "outputDirectory",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   `target`,
					},
					{
						Name:      "archiveName",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   `sbconfig.sbar`,
					},
					{
						Name:      "preserveCredentials",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "preserveEnvValues",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "preserveOperationalValues",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "preserveSecurityAndPolicyConfig",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "preserveAccessControlPolicies",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "customizationFile",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "activateSession",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "discardOnError",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   true,
					},
					{
						Name:      "discardOnFailure",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   false,
					},
					{
						Name:      "requestTimeout",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "int",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   120,
					},
					{
						Name:      "maxRetries",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "int",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   3,
					},
				},
			},
		},
	}
	return theMetaData
}
