package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

type servicebusUnarchiveOptions struct {
	ArchiveFile     string `json:"archiveFile,omitempty"`
	TargetDirectory string `json:"targetDirectory,omitempty"`
}

// ServicebusUnarchiveCommand Extracts an sbar archive into a directory
func ServicebusUnarchiveCommand() *cobra.Command {
	const STEP_NAME = "servicebusUnarchive"

	metadata := servicebusUnarchiveMetadata()
	var stepConfig servicebusUnarchiveOptions

	var createServicebusUnarchiveCmd = &cobra.Command{
		Use:   STEP_NAME,
		Short: "Extracts an sbar archive into a directory",
		Long:  `Extracts all entries of an sbar archive, including its ExportInfo, into the target directory.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetStepName(STEP_NAME)
			log.SetVerbose(GeneralConfig.Verbose)

			err := PrepareConfig(cmd, &metadata, STEP_NAME, &stepConfig, OpenPiperFile)
			if err != nil {
				log.SetErrorCategory(log.ErrorConfiguration)
				return err
			}

			registerHooks(STEP_NAME)

			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			servicebusUnarchive(stepConfig)
			log.Entry().Info("SUCCESS")
		},
	}

	addServicebusUnarchiveFlags(createServicebusUnarchiveCmd, &stepConfig)
	return createServicebusUnarchiveCmd
}

func addServicebusUnarchiveFlags(cmd *cobra.Command, stepConfig *servicebusUnarchiveOptions) {
	cmd.Flags().StringVar(&stepConfig.ArchiveFile, "archiveFile", os.Getenv("PIPER_archiveFile"), "The sbar archive to extract.")
	cmd.Flags().StringVar(&stepConfig.TargetDirectory, "targetDirectory", os.Getenv("PIPER_targetDirectory"), "Directory receiving the extracted entries.")

	cmd.MarkFlagRequired("archiveFile")
	cmd.MarkFlagRequired("targetDirectory")
}

// retrieve step metadata
func servicebusUnarchiveMetadata() config.StepData {
	var theMetaData = config.StepData{
		Metadata: config.StepMetadata{
			Name:        "servicebusUnarchive",
			Description: "Extracts an sbar archive into a directory",
		},
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Parameters: []config.StepParameters{
					{
						Name:      "archiveFile",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
					{
						Name:      "targetDirectory",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "string",
						Mandatory: true,
						Aliases:   []config.Alias{},
					},
				},
			},
		},
	}
	return theMetaData
}
