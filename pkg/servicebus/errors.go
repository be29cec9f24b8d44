package servicebus

import "fmt"

// Reason tags the step a deployment failed in.
type Reason string

const (
	SessionCreateFailed      Reason = "SessionCreateFailed"
	ArtifactUnreadable       Reason = "ArtifactUnreadable"
	ImportFailed             Reason = "ImportFailed"
	CustomizationParseFailed Reason = "CustomizationParseFailed"
	CustomizationApplyFailed Reason = "CustomizationApplyFailed"
	ConflictCheckFailed      Reason = "ConflictCheckFailed"
	ActivationFailed         Reason = "ActivationFailed"
	DiscardFailed            Reason = "DiscardFailed"
	ConflictsDetected        Reason = "ConflictsDetected"
)

// Step names used in error messages and logs.
const (
	StepCreateSession      = "create session"
	StepImportArtifact     = "import artifact"
	StepApplyCustomization = "apply customization"
	StepCheckConflicts     = "check conflicts"
	StepActivate           = "activate session"
	StepDiscard            = "discard session"
)

// DeploymentError is returned when a deployment step fails.
type DeploymentError struct {
	Reason  Reason
	Step    string
	Session string
	Message string
	Err     error
}

func (e *DeploymentError) Error() string {
	message := e.Message
	if len(message) == 0 {
		message = fmt.Sprintf("%v failed for session [%v]", e.Step, e.Session)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", message, e.Err)
	}
	return message
}

// Unwrap returns the underlying error.
func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for github.com/pkg/errors, nil for failures
// detected by the deployment itself.
func (e *DeploymentError) Cause() error {
	return e.Err
}

func newDeploymentError(reason Reason, step, session string, err error, format string, args ...interface{}) *DeploymentError {
	return &DeploymentError{
		Reason:  reason,
		Step:    step,
		Session: session,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
