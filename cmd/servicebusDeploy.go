package cmd

import (
	"errors"
	"path/filepath"
	"time"

	piperhttp "github.com/whitehorses/servicebus-plugin/pkg/http"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
	"github.com/whitehorses/servicebus-plugin/pkg/servicebus"
)

type servicebusDeployUtils interface {
	piperutils.FileUtils
}

type servicebusDeployUtilsBundle struct {
	*piperutils.Files
}

func newServicebusDeployUtils() servicebusDeployUtils {
	return &servicebusDeployUtilsBundle{
		Files: &piperutils.Files{},
	}
}

func servicebusDeploy(config servicebusDeployOptions) {
	utils := newServicebusDeployUtils()
	service := servicebus.NewHTTPService(config.ServerURL, &piperhttp.Client{}, piperhttp.ClientOptions{
		Timeout:    time.Duration(config.RequestTimeout) * time.Second,
		Username:   config.ServerUsername,
		Password:   config.ServerPassword,
		MaxRetries: config.MaxRetries,
	})

	// Error situations should be bubbled up until they reach the line below which will then stop execution
	// through the log.Entry().Fatal() call leading to an os.Exit(1) in the end.
	if err := runServicebusDeploy(&config, utils, service); err != nil {
		log.Entry().WithError(err).Fatal("step execution failed")
	}
}

func runServicebusDeploy(config *servicebusDeployOptions, utils servicebusDeployUtils, service servicebus.ConfigService) error {
	deployer := servicebus.NewDeployer(service)
	deployer.Files = utils

	session, err := deployer.Deploy(servicebus.DeployOptions{
		Project:      config.ProjectName,
		ArtifactPath: filepath.Join(config.OutputDirectory, config.ArchiveName),
		Preserve: servicebus.PreservationFlags{
			Credentials:             config.PreserveCredentials,
			EnvValues:               config.PreserveEnvValues,
			OperationalValues:       config.PreserveOperationalValues,
			SecurityAndPolicyConfig: config.PreserveSecurityAndPolicyConfig,
			AccessControlPolicies:   config.PreserveAccessControlPolicies,
		},
		CustomizationFile: config.CustomizationFile,
		Activate:          config.ActivateSession,
		DiscardOnError:    config.DiscardOnError,
		DiscardOnFailure:  config.DiscardOnFailure,
	})
	if err != nil {
		log.SetErrorCategory(deploymentErrorCategory(err))
		return err
	}

	log.Entry().WithField("session", session.Name).Infof("Deployment of project %v finished", config.ProjectName)
	return nil
}

func deploymentErrorCategory(err error) log.ErrorCategory {
	var deploymentErr *servicebus.DeploymentError
	if !errors.As(err, &deploymentErr) {
		return log.ErrorUndefined
	}
	switch deploymentErr.Reason {
	case servicebus.SessionCreateFailed:
		return log.ErrorInfrastructure
	case servicebus.ArtifactUnreadable, servicebus.CustomizationParseFailed:
		return log.ErrorConfiguration
	default:
		return log.ErrorService
	}
}
