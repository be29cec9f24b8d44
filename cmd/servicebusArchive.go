package cmd

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
	"github.com/whitehorses/servicebus-plugin/pkg/sbar"
)

type servicebusArchiveUtils interface {
	piperutils.FileUtils
}

type servicebusArchiveUtilsBundle struct {
	*piperutils.Files
}

func newServicebusArchiveUtils() servicebusArchiveUtils {
	return &servicebusArchiveUtilsBundle{
		Files: &piperutils.Files{},
	}
}

func servicebusArchive(config servicebusArchiveOptions) {
	utils := newServicebusArchiveUtils()

	if err := runServicebusArchive(&config, utils); err != nil {
		log.Entry().WithError(err).Fatal("step execution failed")
	}
}

func runServicebusArchive(config *servicebusArchiveOptions, utils servicebusArchiveUtils) error {
	if err := utils.MkdirAll(config.OutputDirectory, 0755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %v", config.OutputDirectory)
	}
	archiver := sbar.NewArchiver(filepath.Join(config.OutputDirectory, config.ArchiveName))

	for _, source := range config.Sources {
		if err := addArchiveSource(archiver, utils, source, config.Includes, config.Excludes); err != nil {
			log.SetErrorCategory(log.ErrorConfiguration)
			return err
		}
	}

	if err := archiver.CreateArchive(); err != nil {
		log.SetErrorCategory(log.ErrorBuild)
		return err
	}
	return nil
}

func addArchiveSource(archiver *sbar.Archiver, utils servicebusArchiveUtils, source string, includes, excludes []string) error {
	isDir, err := utils.DirExists(source)
	if err != nil {
		return errors.Wrapf(err, "failed to check source %v", source)
	}
	if isDir {
		log.Entry().Debugf("Adding directory %v", source)
		return archiver.AddDirectory(source, includes, excludes)
	}

	isFile, err := utils.FileExists(source)
	if err != nil {
		return errors.Wrapf(err, "failed to check source %v", source)
	}
	if isFile && strings.EqualFold(filepath.Ext(source), "."+sbar.ArchiveType) {
		log.Entry().Debugf("Adding entries of archive %v", source)
		return archiver.AddArchive(source)
	}
	if isFile {
		return errors.Errorf("source %v is neither a directory nor an %v archive", source, sbar.ArchiveType)
	}
	return errors.Errorf("source %v does not exist", source)
}
