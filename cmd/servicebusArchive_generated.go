package cmd

import (
	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/config"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

type servicebusArchiveOptions struct {
	Sources         []string `json:"sources,omitempty" validate:"min=1"`
	Includes        []string `json:"includes,omitempty"`
	Excludes        []string `json:"excludes,omitempty"`
	OutputDirectory string   `json:"outputDirectory,omitempty"`
	ArchiveName     string   `json:"archiveName,omitempty"`
}

// ServicebusArchiveCommand Builds an sbar archive from directories and existing sbar archives
func ServicebusArchiveCommand() *cobra.Command {
	const STEP_NAME = "servicebusArchive"

	metadata := servicebusArchiveMetadata()
	var stepConfig servicebusArchiveOptions

	var createServicebusArchiveCmd = &cobra.Command{
		Use:   STEP_NAME,
		Short: "Builds an sbar archive from directories and existing sbar archives",
		Long: `Collects the resources of the given directories and the entries of the given sbar archives
into one sbar archive. The ExportInfo documents of all sources are merged into a single ExportInfo entry.`,
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
			servicebusArchive(stepConfig)
			log.Entry().Info("SUCCESS")
		},
	}

	addServicebusArchiveFlags(createServicebusArchiveCmd, &stepConfig)
	return createServicebusArchiveCmd
}

func addServicebusArchiveFlags(cmd *cobra.Command, stepConfig *servicebusArchiveOptions) {
	cmd.Flags().StringSliceVar(&stepConfig.Sources, "sources", []string{}, "Directories and sbar archives to include.")
	cmd.Flags().StringSliceVar(&stepConfig.Includes, "includes", []string{}, "Patterns of files to include from the source directories.")
	cmd.Flags().StringSliceVar(&stepConfig.Excludes, "excludes", []string{}, "Patterns of files to exclude from the source directories.")
	cmd.Flags().StringVar(&stepConfig.OutputDirectory, "outputDirectory", `target`, "Directory receiving the sbar archive.")
	cmd.Flags().StringVar(&stepConfig.ArchiveName, "archiveName", `sbconfig.sbar`, "File name of the sbar archive.")

	cmd.MarkFlagRequired("sources")
}

// retrieve step metadata
func servicebusArchiveMetadata() config.StepData {
	var theMetaData = config.StepData{
		Metadata: config.StepMetadata{
			Name:        "servicebusArchive",
			Description: "Builds an sbar archive from directories and existing sbar archives",
		},
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Parameters: []config.StepParameters{
					{
						Name:      "sources",
						Scope:     []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:      "[]string",
						Mandatory: true,
						Aliases:   []config.Alias{},
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
				},
			},
		},
	}
	return theMetaData
}
