package cmd

import (
	"bytes"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/command"
	"github.com/whitehorses/servicebus-plugin/pkg/configjar"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
	"github.com/whitehorses/servicebus-plugin/pkg/sbar"
)

type servicebusPackageUtils interface {
	command.ExecRunner
	piperutils.FileUtils
}

type servicebusPackageUtilsBundle struct {
	*command.Command
	*piperutils.Files
}

func newServicebusPackageUtils() servicebusPackageUtils {
	utils := servicebusPackageUtilsBundle{
		Command: &command.Command{ErrorCategoryMapping: configjar.ErrorCategories},
		Files:   &piperutils.Files{},
	}
	return &utils
}

func servicebusPackage(config servicebusPackageOptions) {
	utils := newServicebusPackageUtils()

	// Error situations should be bubbled up until they reach the line below which will then stop execution
	// through the log.Entry().Fatal() call leading to an os.Exit(1) in the end.
	if err := runServicebusPackage(&config, utils); err != nil {
		log.Entry().WithError(err).Fatal("step execution failed")
	}
}

func runServicebusPackage(config *servicebusPackageOptions, utils servicebusPackageUtils) error {
	archive := filepath.Join(config.OutputDirectory, sbar.DefaultArchiveName)
	exists, err := utils.FileExists(archive)
	if err != nil {
		return errors.Wrapf(err, "failed to check for archive %v", archive)
	}
	if exists {
		log.Entry().Infof("Archive %v already exists, skipping configjar", archive)
		return nil
	}

	exportLevel, err := configjar.ParseExportLevel(config.ExportLevel)
	if err != nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		return err
	}

	settings, err := packageSettings(config, utils, archive, exportLevel)
	if err != nil {
		return err
	}

	var content bytes.Buffer
	if _, err := settings.WriteTo(&content); err != nil {
		return errors.Wrap(err, "failed to generate configjar settings")
	}
	settingsFile := filepath.Join(config.OutputDirectory, configjar.SettingsFileName)
	if err := utils.MkdirAll(filepath.Dir(settingsFile), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %v", settingsFile)
	}
	if err := utils.FileWrite(settingsFile, content.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write configjar settings %v", settingsFile)
	}
	log.Entry().Debugf("configjar settings written to %v", settingsFile)

	settingsPath, err := utils.Abs(settingsFile)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve configjar settings %v", settingsFile)
	}
	tool := configjar.Tool{OracleHome: config.OracleHome, JavaHome: config.JavaHome, WorkDir: settings.ProjectDir, Runner: utils}
	if err := tool.Run(settingsPath); err != nil {
		if log.GetErrorCategory() == log.ErrorUndefined {
			log.SetErrorCategory(log.ErrorBuild)
		}
		return errors.Wrap(err, "failed to create sbar archive")
	}

	if exists, _ := utils.FileExists(archive); !exists {
		log.SetErrorCategory(log.ErrorBuild)
		return errors.Errorf("failed to create sbar archive: %v not found after running configjar", archive)
	}
	log.Entry().Infof("Archive %v created", archive)
	return nil
}

func packageSettings(config *servicebusPackageOptions, utils servicebusPackageUtils, archive string, exportLevel configjar.ExportLevel) (configjar.Settings, error) {
	includes, excludes := []string{}, []string{}
	if len(config.ResourcesFile) > 0 {
		content, err := utils.FileRead(config.ResourcesFile)
		if err != nil {
			log.SetErrorCategory(log.ErrorConfiguration)
			return configjar.Settings{}, errors.Wrapf(err, "failed to read resources file %v", config.ResourcesFile)
		}
		includes, excludes, err = configjar.ReadResourceList(bytes.NewReader(content))
		if err != nil {
			log.SetErrorCategory(log.ErrorConfiguration)
			return configjar.Settings{}, err
		}
	}
	includes = append(includes, config.Includes...)
	excludes = append(excludes, config.Excludes...)

	projectDir, err := utils.Abs(config.ProjectDir)
	if err != nil {
		return configjar.Settings{}, errors.Wrapf(err, "failed to resolve project directory %v", config.ProjectDir)
	}
	archiveFile, err := utils.Abs(archive)
	if err != nil {
		return configjar.Settings{}, errors.Wrapf(err, "failed to resolve archive %v", archive)
	}
	projectName := config.ProjectName
	if len(projectName) == 0 {
		projectName = filepath.Base(projectDir)
	}

	return configjar.Settings{
		ProjectName: projectName,
		ProjectDir:  projectDir,
		ArchiveFile: archiveFile,
		System:      config.System,
		ExportLevel: exportLevel,
		Includes:    includes,
		Excludes:    excludes,
	}, nil
}
