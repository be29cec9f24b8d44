package cmd

import (
	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/sbar"
)

func servicebusUnarchive(config servicebusUnarchiveOptions) {
	if err := runServicebusUnarchive(&config); err != nil {
		log.Entry().WithError(err).Fatal("step execution failed")
	}
}

func runServicebusUnarchive(config *servicebusUnarchiveOptions) error {
	count, err := sbar.Unarchive(config.ArchiveFile, config.TargetDirectory)
	if err != nil {
		log.SetErrorCategory(log.ErrorBuild)
		return err
	}
	log.Entry().Infof("Extracted %v files of %v into %v", count, config.ArchiveFile, config.TargetDirectory)
	return nil
}
