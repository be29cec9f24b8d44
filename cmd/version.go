package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

// GitCommit ...
var GitCommit string

// GitTag ...
var GitTag string

// VersionCommand Returns the version of the sbplugin binary
func VersionCommand() *cobra.Command {
	var createVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Returns the version of the sbplugin binary",
		Long:  `Writes the commit hash and the tag (if any) to stdout and exits with 0.`,
		PreRun: func(cmd *cobra.Command, _ []string) {
			log.SetStepName("version")
			log.SetVerbose(GeneralConfig.Verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return version(os.Stdout)
		},
	}
	return createVersionCmd
}

func version(out io.Writer) error {
	gitCommit, gitTag := "<n/a>", "<n/a>"

	if len(GitCommit) > 0 {
		gitCommit = GitCommit
	}

	if len(GitTag) > 0 {
		gitTag = GitTag
	}

	_, err := fmt.Fprintf(out, "sbplugin-version:\n    commit: \"%s\"\n    tag: \"%s\"\n", gitCommit, gitTag)

	return err
}
