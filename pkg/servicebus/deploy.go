package servicebus

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
)

// DeployOptions configure one deployment of an sbar archive.
type DeployOptions struct {
	Project           string
	ArtifactPath      string
	Preserve          PreservationFlags
	CustomizationFile string
	// Activate commits the session. Without activation the session stays open on the server.
	Activate bool
	// DiscardOnError discards the session when conflicts prevent the activation.
	DiscardOnError bool
	// DiscardOnFailure discards the session when any step after its creation fails.
	DiscardOnFailure bool
}

// Deployer drives the session protocol against a ConfigService:
// create session, import, customize, check conflicts, activate or discard.
type Deployer struct {
	Service ConfigService
	Files   piperutils.FileUtils
	Now     func() time.Time
}

// NewDeployer creates a deployer reading files from the local file system.
func NewDeployer(service ConfigService) *Deployer {
	return &Deployer{Service: service, Files: &piperutils.Files{}, Now: time.Now}
}

// Deploy runs all steps. The returned session is nil when no session could be created.
func (d *Deployer) Deploy(opts DeployOptions) (*Session, error) {
	session, err := d.CreateSession(opts.Project)
	if err != nil {
		return nil, err
	}

	if err := d.ImportArtifact(session, opts.ArtifactPath, opts.Preserve); err != nil {
		return session, d.failed(session, opts, err)
	}

	if len(opts.CustomizationFile) > 0 {
		if err := d.ApplyCustomization(session, opts.CustomizationFile); err != nil {
			return session, d.failed(session, opts, err)
		}
	}

	if !opts.Activate {
		logger(session).Warnf("Session [%v] is not activated and remains open", session.Name)
		return session, nil
	}

	conflicts, err := d.HasConflicts(session)
	if err != nil {
		return session, d.failed(session, opts, err)
	}
	if conflicts {
		if opts.DiscardOnError {
			if err := d.Discard(session); err != nil {
				logger(session).WithError(err).Error("Discarding the session with conflicts failed")
			}
		}
		return session, newDeploymentError(ConflictsDetected, StepCheckConflicts, session.Name, nil,
			"session [%v] could not be activated due to existing conflicts", session.Name)
	}

	if err := d.Activate(session); err != nil {
		return session, d.failed(session, opts, err)
	}
	return session, nil
}

// failed discards the session if configured and always returns the original failure.
func (d *Deployer) failed(session *Session, opts DeployOptions, cause error) error {
	if opts.DiscardOnFailure {
		if err := d.Discard(session); err != nil {
			logger(session).WithError(err).Error("Discarding the session after a failed deployment failed")
		}
	}
	return cause
}

// CreateSession creates a uniquely named session for the project.
func (d *Deployer) CreateSession(project string) (*Session, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	session := NewSession(project, now())
	logger(session).Infof("Creating session [%v]", session.Name)

	if err := d.Service.CreateSession(session.Name); err != nil {
		return nil, newDeploymentError(SessionCreateFailed, StepCreateSession, session.Name, err,
			"unable to create session [%v]", session.Name)
	}
	return session, nil
}

// ImportArtifact uploads the archive and imports it with the default plan overridden by preserve.
func (d *Deployer) ImportArtifact(session *Session, artifactPath string, preserve PreservationFlags) error {
	logger(session).Infof("Importing artifact [%v] to session [%v]", artifactPath, session.Name)

	content, err := d.Files.FileRead(artifactPath)
	if err != nil {
		return newDeploymentError(ArtifactUnreadable, StepImportArtifact, session.Name, err,
			"unable to read artifact [%v]", artifactPath)
	}

	if err := d.Service.UploadArchive(session.Name, content); err != nil {
		return newDeploymentError(ImportFailed, StepImportArtifact, session.Name, err,
			"unable to upload artifact [%v] to session [%v]", artifactPath, session.Name)
	}

	plan, err := d.Service.DefaultImportPlan(session.Name)
	if err != nil {
		return newDeploymentError(ImportFailed, StepImportArtifact, session.Name, err,
			"failed to retrieve default import plan of session [%v]", session.Name)
	}
	plan = preserve.Apply(plan)
	logger(session).Debugf("Using import plan %+v", plan)

	result, err := d.Service.ImportUploaded(session.Name, plan)
	if err != nil {
		return newDeploymentError(ImportFailed, StepImportArtifact, session.Name, err,
			"unable to import artifact [%v] to session [%v]", artifactPath, session.Name)
	}
	if len(result.Failed) > 0 {
		refs := make([]string, 0, len(result.Failed))
		for ref := range result.Failed {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			logger(session).WithField("resource", ref).Errorf("Import failed: %v", result.Failed[ref])
		}
		return newDeploymentError(ImportFailed, StepImportArtifact, session.Name, nil,
			"import of artifact to session [%v] failed for %v resource(s): %v", session.Name, len(refs), strings.Join(refs, ", "))
	}
	logger(session).Infof("Imported %v resource(s)", len(result.Imported))
	return nil
}

// ApplyCustomization applies the directives of an OSB customization file to the session.
func (d *Deployer) ApplyCustomization(session *Session, customizationFile string) error {
	logger(session).Infof("Applying customization file [%v]", customizationFile)

	content, err := d.Files.FileRead(customizationFile)
	if err != nil {
		return newDeploymentError(CustomizationParseFailed, StepApplyCustomization, session.Name, err,
			"unable to read customization file [%v]", customizationFile)
	}
	customizations, err := ParseCustomizations(bytes.NewReader(content))
	if err != nil {
		return newDeploymentError(CustomizationParseFailed, StepApplyCustomization, session.Name, err,
			"unable to parse XML from customization file [%v]", customizationFile)
	}
	if err := d.Service.Customize(session.Name, customizations); err != nil {
		return newDeploymentError(CustomizationApplyFailed, StepApplyCustomization, session.Name, err,
			"unable to apply customization file [%v] to session [%v]", customizationFile, session.Name)
	}
	logger(session).Infof("Applied %v customization(s)", len(customizations))
	return nil
}

// HasConflicts reports whether any resource of the session has a diagnostic severity
// which prevents the activation.
func (d *Deployer) HasConflicts(session *Session) (bool, error) {
	logger(session).Infof("Checking for conflicts in session [%v]", session.Name)

	diagnostics, err := d.Service.Diagnostics(session.Name)
	if err != nil {
		return false, newDeploymentError(ConflictCheckFailed, StepCheckConflicts, session.Name, err,
			"an unexpected error occurred while checking session [%v] for conflicts", session.Name)
	}

	refs := make([]string, 0, len(diagnostics))
	for ref := range diagnostics {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	conflicts := false
	for _, ref := range refs {
		if severity := diagnostics[ref]; !severity.IsValid() {
			logger(session).WithField("resource", ref).Errorf("Conflict with severity %v", severity)
			conflicts = true
		}
	}
	return conflicts, nil
}

// Activate commits the session.
func (d *Deployer) Activate(session *Session) error {
	logger(session).Infof("Activating session [%v]", session.Name)

	if err := d.Service.ActivateSession(session.Name, ActivationDescription); err != nil {
		return newDeploymentError(ActivationFailed, StepActivate, session.Name, err,
			"unable to activate session [%v]", session.Name)
	}
	return nil
}

// Discard rolls the session back.
func (d *Deployer) Discard(session *Session) error {
	logger(session).Infof("Discarding session [%v]", session.Name)

	if err := d.Service.DiscardSession(session.Name); err != nil {
		return newDeploymentError(DiscardFailed, StepDiscard, session.Name, err,
			"unable to discard session [%v]", session.Name)
	}
	return nil
}

func logger(session *Session) *logrus.Entry {
	return log.Entry().WithField("session", session.Name)
}
