//go:build unit
// +build unit

package servicebus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitehorses/servicebus-plugin/pkg/mock"
)

const customizationFile = `<?xml version="1.0" encoding="UTF-8"?>
<cus:Customizations xmlns:cus="http://www.bea.com/wli/config/customizations" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xt="http://www.bea.com/wli/config/xmltypes">
  <cus:customization xsi:type="cus:EnvValueCustomizationType">
    <cus:description>endpoint of the order service</cus:description>
    <cus:envValueAssignments>
      <xt:envValueType>Service URI</xt:envValueType>
      <xt:location>0</xt:location>
      <xt:owner>
        <xt:type>BusinessService</xt:type>
        <xt:path>Orders/BusinessServices/OrderService</xt:path>
      </xt:owner>
      <xt:value xsi:type="xs:string" xmlns:xs="http://www.w3.org/2001/XMLSchema">http://orders.test:8080/orders</xt:value>
    </cus:envValueAssignments>
  </cus:customization>
  <cus:customization xsi:type="cus:FindAndReplaceCustomizationType">
    <cus:description/>
    <cus:query>
      <xt:resourceTypes>ProxyService</xt:resourceTypes>
      <xt:includeOnlyModifiedResources>false</xt:includeOnlyModifiedResources>
    </cus:query>
    <cus:findText>orders.dev</cus:findText>
    <cus:replaceText>orders.test</cus:replaceText>
  </cus:customization>
</cus:Customizations>
`

type serviceCall struct {
	method  string
	session string
}

// configServiceMock records all calls in order.
type configServiceMock struct {
	calls []serviceCall

	defaultPlan    ImportPlan
	importedPlan   ImportPlan
	uploaded       []byte
	result         ImportResult
	customizations []Customization
	diagnostics    map[string]Severity
	description    string

	failOn map[string]error
}

func (m *configServiceMock) record(method, session string) error {
	m.calls = append(m.calls, serviceCall{method: method, session: session})
	return m.failOn[method]
}

func (m *configServiceMock) methods() []string {
	methods := []string{}
	for _, call := range m.calls {
		methods = append(methods, call.method)
	}
	return methods
}

func (m *configServiceMock) CreateSession(session string) error {
	return m.record("CreateSession", session)
}

func (m *configServiceMock) DefaultImportPlan(session string) (ImportPlan, error) {
	return m.defaultPlan, m.record("DefaultImportPlan", session)
}

func (m *configServiceMock) UploadArchive(session string, content []byte) error {
	m.uploaded = content
	return m.record("UploadArchive", session)
}

func (m *configServiceMock) ImportUploaded(session string, plan ImportPlan) (ImportResult, error) {
	m.importedPlan = plan
	return m.result, m.record("ImportUploaded", session)
}

func (m *configServiceMock) Customize(session string, customizations []Customization) error {
	m.customizations = customizations
	return m.record("Customize", session)
}

func (m *configServiceMock) Diagnostics(session string) (map[string]Severity, error) {
	return m.diagnostics, m.record("Diagnostics", session)
}

func (m *configServiceMock) ActivateSession(session, description string) error {
	m.description = description
	return m.record("ActivateSession", session)
}

func (m *configServiceMock) DiscardSession(session string) error {
	return m.record("DiscardSession", session)
}

var created = time.Date(2024, time.March, 5, 10, 11, 12, 345000000, time.UTC)

func newTestDeployer(service ConfigService) (*Deployer, *mock.FilesMock) {
	files := &mock.FilesMock{}
	files.AddFile("target/sbconfig.sbar", []byte("PK-sbar"))
	files.AddFile("customization.xml", []byte(customizationFile))
	return &Deployer{Service: service, Files: files, Now: func() time.Time { return created }}, files
}

func defaultOptions() DeployOptions {
	return DeployOptions{
		Project:        "orders",
		ArtifactPath:   "target/sbconfig.sbar",
		Preserve:       PreservationFlags{Credentials: true, EnvValues: true, OperationalValues: true, SecurityAndPolicyConfig: true, AccessControlPolicies: true},
		Activate:       true,
		DiscardOnError: true,
	}
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{diagnostics: map[string]Severity{"ProxyService$orders$Proxy": SeverityOK, "XMLSchema$orders$Order": SeverityWarning}}
		deployer, _ := newTestDeployer(service)

		session, err := deployer.Deploy(defaultOptions())

		require.NoError(t, err)
		assert.Equal(t, "ServiceBusPlugin_orders_1709633472345", session.Name)
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded", "Diagnostics", "ActivateSession"}, service.methods())
		for _, call := range service.calls {
			assert.Equal(t, session.Name, call.session)
		}
		assert.Equal(t, []byte("PK-sbar"), service.uploaded)
		assert.Equal(t, ActivationDescription, service.description)
		assert.Equal(t, "Published from ServiceBusPlugin.", service.description)
	})

	t.Run("import plan overrides the default plan", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{defaultPlan: ImportPlan{PreserveExistingCredentials: true, PreserveExistingEnvValues: true}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.Preserve = PreservationFlags{EnvValues: false, OperationalValues: true, AccessControlPolicies: true}

		_, err := deployer.Deploy(opts)

		require.NoError(t, err)
		assert.Equal(t, ImportPlan{
			PreserveExistingCredentials:             false,
			PreserveExistingEnvValues:               false,
			PreserveExistingOperationalValues:       true,
			PreserveExistingSecurityAndPolicyConfig: false,
			PreserveExistingAccessControlPolicies:   true,
		}, service.importedPlan)
	})

	t.Run("failed import units stop the deployment", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{result: ImportResult{Failed: map[string]string{"ProxyService$orders$Proxy": "invalid endpoint"}}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.CustomizationFile = "customization.xml"

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ImportFailed, deploymentErr.Reason)
		assert.Equal(t, StepImportArtifact, deploymentErr.Step)
		assert.Equal(t, "ServiceBusPlugin_orders_1709633472345", deploymentErr.Session)
		assert.Contains(t, err.Error(), "ProxyService$orders$Proxy")
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded"}, service.methods())
	})

	t.Run("conflicts discard the session", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{diagnostics: map[string]Severity{"ProxyService$orders$Proxy": SeverityOK, "BusinessService$orders$Order": SeverityError}}
		deployer, _ := newTestDeployer(service)

		session, err := deployer.Deploy(defaultOptions())

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ConflictsDetected, deploymentErr.Reason)
		assert.EqualError(t, err, "session [ServiceBusPlugin_orders_1709633472345] could not be activated due to existing conflicts")
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded", "Diagnostics", "DiscardSession"}, service.methods())
		assert.NotContains(t, service.methods(), "ActivateSession")
		assert.Equal(t, session.Name, service.calls[5].session)
	})

	t.Run("conflicts without discard leave the session open", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{diagnostics: map[string]Severity{"ProxyService$orders$Proxy": Severity("UNKNOWN")}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.DiscardOnError = false

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ConflictsDetected, deploymentErr.Reason)
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded", "Diagnostics"}, service.methods())
	})

	t.Run("failing discard keeps the conflict failure", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{
			diagnostics: map[string]Severity{"ProxyService$orders$Proxy": SeverityFatal},
			failOn:      map[string]error{"DiscardSession": errors.New("session locked")},
		}
		deployer, _ := newTestDeployer(service)

		_, err := deployer.Deploy(defaultOptions())

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ConflictsDetected, deploymentErr.Reason)
		assert.Contains(t, service.methods(), "DiscardSession")
	})

	t.Run("without activation the session stays open", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{diagnostics: map[string]Severity{"ProxyService$orders$Proxy": SeverityError}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.Activate = false

		session, err := deployer.Deploy(opts)

		require.NoError(t, err)
		assert.NotNil(t, session)
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded"}, service.methods())
	})

	t.Run("customization", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.CustomizationFile = "customization.xml"

		_, err := deployer.Deploy(opts)

		require.NoError(t, err)
		assert.Equal(t, []string{"CreateSession", "UploadArchive", "DefaultImportPlan", "ImportUploaded", "Customize", "Diagnostics", "ActivateSession"}, service.methods())
		require.Len(t, service.customizations, 2)
		assert.Equal(t, "EnvValueCustomizationType", service.customizations[0].Type)
	})

	t.Run("malformed customization file", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{}
		deployer, files := newTestDeployer(service)
		files.AddFile("broken.xml", []byte("<cus:Customizations"))
		opts := defaultOptions()
		opts.CustomizationFile = "broken.xml"

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, CustomizationParseFailed, deploymentErr.Reason)
		assert.NotContains(t, service.methods(), "Customize")
		assert.NotContains(t, service.methods(), "Diagnostics")
	})

	t.Run("rejected customization", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"Customize": errors.New("unknown owner")}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.CustomizationFile = "customization.xml"

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, CustomizationApplyFailed, deploymentErr.Reason)
		assert.NotContains(t, service.methods(), "ActivateSession")
	})

	t.Run("session creation fails", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"CreateSession": errors.New("connection refused")}}
		deployer, _ := newTestDeployer(service)

		session, err := deployer.Deploy(defaultOptions())

		assert.Nil(t, session)
		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, SessionCreateFailed, deploymentErr.Reason)
		assert.EqualError(t, err, "unable to create session [ServiceBusPlugin_orders_1709633472345]: connection refused")
		assert.Equal(t, []string{"CreateSession"}, service.methods())
	})

	t.Run("artifact unreadable", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.ArtifactPath = "target/missing.sbar"

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ArtifactUnreadable, deploymentErr.Reason)
		assert.Equal(t, []string{"CreateSession"}, service.methods())
	})

	t.Run("activation fails", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"ActivateSession": errors.New("timeout")}}
		deployer, _ := newTestDeployer(service)

		_, err := deployer.Deploy(defaultOptions())

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ActivationFailed, deploymentErr.Reason)
		assert.Equal(t, "timeout", errors.Unwrap(err).Error())
		assert.NotContains(t, service.methods(), "DiscardSession")
	})

	t.Run("failed conflict check", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"Diagnostics": errors.New("server error")}}
		deployer, _ := newTestDeployer(service)

		_, err := deployer.Deploy(defaultOptions())

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ConflictCheckFailed, deploymentErr.Reason)
		assert.NotContains(t, service.methods(), "ActivateSession")
	})
}

func TestDeployDiscardOnFailure(t *testing.T) {
	t.Parallel()

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"ImportUploaded": errors.New("broken archive")}}
		deployer, _ := newTestDeployer(service)

		_, err := deployer.Deploy(defaultOptions())

		assert.Error(t, err)
		assert.NotContains(t, service.methods(), "DiscardSession")
	})

	for _, failing := range []string{"ImportUploaded", "Customize", "Diagnostics", "ActivateSession"} {
		failing := failing
		t.Run("discard after "+failing, func(t *testing.T) {
			t.Parallel()
			service := &configServiceMock{failOn: map[string]error{failing: errors.New("failure")}}
			deployer, _ := newTestDeployer(service)
			opts := defaultOptions()
			opts.CustomizationFile = "customization.xml"
			opts.DiscardOnFailure = true

			_, err := deployer.Deploy(opts)

			var deploymentErr *DeploymentError
			require.True(t, errors.As(err, &deploymentErr))
			assert.NotEqual(t, DiscardFailed, deploymentErr.Reason)
			methods := service.methods()
			assert.Equal(t, failing, methods[len(methods)-2])
			assert.Equal(t, "DiscardSession", methods[len(methods)-1])
		})
	}

	t.Run("failing discard keeps the original failure", func(t *testing.T) {
		t.Parallel()
		service := &configServiceMock{failOn: map[string]error{"ImportUploaded": errors.New("broken archive"), "DiscardSession": errors.New("locked")}}
		deployer, _ := newTestDeployer(service)
		opts := defaultOptions()
		opts.DiscardOnFailure = true

		_, err := deployer.Deploy(opts)

		var deploymentErr *DeploymentError
		require.True(t, errors.As(err, &deploymentErr))
		assert.Equal(t, ImportFailed, deploymentErr.Reason)
	})
}

func TestSeverity(t *testing.T) {
	t.Parallel()
	assert.True(t, SeverityOK.IsValid())
	assert.True(t, SeverityWarning.IsValid())
	assert.True(t, Severity("warning").IsValid())
	assert.False(t, SeverityError.IsValid())
	assert.False(t, SeverityFatal.IsValid())
	assert.False(t, Severity("").IsValid())
}

func TestNewSession(t *testing.T) {
	t.Parallel()
	first := NewSession("orders", created)
	second := NewSession("orders", created.Add(time.Millisecond))

	assert.Equal(t, "ServiceBusPlugin_orders_1709633472345", first.Name)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Equal(t, "orders", first.Project)
}
