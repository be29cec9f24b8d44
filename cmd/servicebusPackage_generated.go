package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

type servicebusPackageOptions struct {
	OracleHome      string   `json:"oracleHome,omitempty"`
	JavaHome        string   `json:"javaHome,omitempty"`
	ProjectDir      string   `json:"projectDir,omitempty"`
	ProjectName     string   `json:"projectName,omitempty"`
	OutputDirectory string   `json:"outputDirectory,omitempty"`
	System          bool     `json:"system,omitempty"`
	ExportLevel     string   `json:"exportLevel,omitempty"`
	Includes        []string `json:"includes,omitempty"`
	Excludes        []string `json:"excludes,omitempty"`
	ResourcesFile   string   `json:"resourcesFile,omitempty"`
}

// ServicebusPackageCommand Packages a Service Bus project into an sbar archive using configjar
func ServicebusPackageCommand() *cobra.Command {
	const STEP_NAME = "servicebusPackage"

	metadata := servicebusPackageMetadata()
	var stepConfig servicebusPackageOptions

	var createServicebusPackageCmd = &cobra.Command{
		Use:   STEP_NAME,
		Short: "Packages a Service Bus project into an sbar archive using configjar",
		Long: `Generates the configjar settings file for the project and runs the configjar tool of the Oracle home.
The step is skipped when the archive already exists in the output directory.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetStepName(STEP_NAME)
			log.SetVerbose(GeneralConfig.Verbose)

			err := PrepareConfig(cmd, &metadata, STEP_NAME, &stepConfig, OpenPiperFile)
			if err != nil {
				log.SetErrorCategory(log.ErrorConfiguration)
				return err
			}

			registerHooks(STEP_NAME)

			return validateOptions(stepConfig)
		},
		Run: func(_ *cobra.Command, _ []string) {
			servicebusPackage(stepConfig)
			log.Entry().Info("SUCCESS")
		},
	}

	addServicebusPackageFlags(createServicebusPackageCmd, &stepConfig)
	return createServicebusPackageCmd
}

func addServicebusPackageFlags(cmd *cobra.Command, stepConfig *servicebusPackageOptions) {
	cmd.Flags().StringVar(&stepConfig.OracleHome, "oracleHome", os.Getenv("PIPER_oracleHome"), "Oracle home containing the Service Bus tools.")
	cmd.Flags().StringVar(&stepConfig.JavaHome, "javaHome", os.Getenv("PIPER_javaHome"), "Java installation used by configjar. Defaults to the lookup of the configjar launcher.")
	cmd.Flags().StringVar(&stepConfig.ProjectDir, "projectDir", os.Getenv("PIPER_projectDir"), "Directory containing the Service Bus projects.")
	cmd.Flags().StringVar(&stepConfig.ProjectName, "projectName", os.Getenv("PIPER_projectName"), "Name of the exported project. Defaults to the name of the project directory.")
	cmd.Flags().StringVar(&stepConfig.OutputDirectory, "outputDirectory", `target`, "Directory receiving the configjar settings and the sbar archive.")
	cmd.Flags().BoolVar(&stepConfig.System, "system", false, "Export the system resources instead of a project.")
	cmd.Flags().StringVar(&stepConfig.ExportLevel, "exportLevel", os.Getenv("PIPER_exportLevel"), "Export level, RESOURCE or PROJECT.")
	cmd.Flags().StringSliceVar(&stepConfig.Includes, "includes", []string{}, "Patterns of resources to include.")
	cmd.Flags().StringSliceVar(&stepConfig.Excludes, "excludes", []string{}, "Patterns of resources to exclude.")
	cmd.Flags().StringVar(&stepConfig.ResourcesFile, "resourcesFile", os.Getenv("PIPER_resourcesFile"), "XML file listing include and exclude patterns.")

	cmd.MarkFlagRequired("oracleHome")
	cmd.MarkFlagRequired("projectDir")
	cmd.MarkFlagRequired("exportLevel")
}

// retrieve step metadata
func servicebusPackageMetadata() config.StepData {
	var theMetaData = config.StepData{
		Metadata: config.StepMetadata{
			Name:        "servicebusPackage",
			Description: "Packages a Service Bus project into an sbar archive using configjar",
		},
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Parameters: []config.StepParameters{
					{
						Name:      "oracleHome",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "javaHome",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "projectDir",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "projectName",
						Scope:     []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
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
						Name:      "system",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "bool",
						Mandatory: false,
						Aliases:   []config.Alias{},
						Default:   false,
					},
					{
						Name:           "exportLevel",
						Scope:          []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:           "string",
						Mandatory:      true,
						PossibleValues: []interface{}{"RESOURCE", "PROJECT"},
						Aliases:        []config.Alias{},
					},
					{
						Name:      "includes",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "[]string",
						Mandatory: false,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "excludes",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "[]string",
						Mandatory: false,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "resourcesFile",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: false,
						Aliases:   []config.Alias{{Name: "deployFile", Deprecated: true}},
					},
				},
			},
		},
	}
	return theMetaData
}
