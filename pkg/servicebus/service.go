package servicebus

import (
	"fmt"
	"strings"
	"time"
)

// SessionNamePrefix is the first part of every session created by a deployment.
const SessionNamePrefix = "ServiceBusPlugin"

// ActivationDescription is stored with every activated session.
const ActivationDescription = "Published from ServiceBusPlugin."

// ConfigService is the remote configuration service of a Service Bus domain.
// Every call is scoped to a named session.
type ConfigService interface {
	CreateSession(session string) error
	DefaultImportPlan(session string) (ImportPlan, error)
	UploadArchive(session string, content []byte) error
	ImportUploaded(session string, plan ImportPlan) (ImportResult, error)
	Customize(session string, customizations []Customization) error
	Diagnostics(session string) (map[string]Severity, error)
	ActivateSession(session, description string) error
	DiscardSession(session string) error
}

// ImportPlan controls which existing server configuration survives an import.
type ImportPlan struct {
	PreserveExistingCredentials             bool `json:"preserveExistingCredentials"`
	PreserveExistingEnvValues               bool `json:"preserveExistingEnvValues"`
	PreserveExistingOperationalValues       bool `json:"preserveExistingOperationalValues"`
	PreserveExistingSecurityAndPolicyConfig bool `json:"preserveExistingSecurityAndPolicyConfig"`
	PreserveExistingAccessControlPolicies   bool `json:"preserveExistingAccessControlPolicies"`
}

// PreservationFlags are the configured overrides of the default import plan.
type PreservationFlags struct {
	Credentials             bool
	EnvValues               bool
	OperationalValues       bool
	SecurityAndPolicyConfig bool
	AccessControlPolicies   bool
}

// Apply returns the plan with all five preservation flags overridden.
func (f PreservationFlags) Apply(plan ImportPlan) ImportPlan {
	plan.PreserveExistingCredentials = f.Credentials
	plan.PreserveExistingEnvValues = f.EnvValues
	plan.PreserveExistingOperationalValues = f.OperationalValues
	plan.PreserveExistingSecurityAndPolicyConfig = f.SecurityAndPolicyConfig
	plan.PreserveExistingAccessControlPolicies = f.AccessControlPolicies
	return plan
}

// ImportResult lists the imported references and the failed ones with their reason.
type ImportResult struct {
	Imported []string
	Failed   map[string]string
}

// Severity of a diagnostic reported for a resource of a session.
type Severity string

const (
	SeverityOK      Severity = "OK"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
)

// IsValid reports whether a session with this severity can be activated.
func (s Severity) IsValid() bool {
	return strings.EqualFold(string(s), string(SeverityOK)) || strings.EqualFold(string(s), string(SeverityWarning))
}

// Session identifies the remote session of one deployment.
type Session struct {
	Name    string
	Project string
	Created time.Time
}

// NewSession names a session after the project and the creation time in milliseconds.
func NewSession(project string, created time.Time) *Session {
	return &Session{
		Name:    fmt.Sprintf("%v_%v_%v", SessionNamePrefix, project, created.UnixMilli()),
		Project: project,
		Created: created,
	}
}

// String implements fmt.Stringer.
func (s *Session) String() string {
	return fmt.Sprintf("%v (project %v, created %v)", s.Name, s.Project, s.Created.Format(time.RFC3339))
}
