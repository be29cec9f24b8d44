package servicebus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"

	piperhttp "github.com/whitehorses/servicebus-plugin/pkg/http"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

const sessionsPath = "/management/servicebus/sessions"

// HTTPService implements ConfigService against the JSON management endpoint of a
// Service Bus administration server.
type HTTPService struct {
	ServerURL string
	Client    piperhttp.Sender
}

// NewHTTPService configures client with the given options and binds it to serverURL.
func NewHTTPService(serverURL string, client piperhttp.Sender, options piperhttp.ClientOptions) *HTTPService {
	client.SetOptions(options)
	return &HTTPService{ServerURL: strings.TrimSuffix(serverURL, "/"), Client: client}
}

func (s *HTTPService) sessionURL(session, suffix string) string {
	return fmt.Sprintf("%v%v/%v%v", s.ServerURL, sessionsPath, url.PathEscape(session), suffix)
}

// CreateSession creates the session on the server.
func (s *HTTPService) CreateSession(session string) error {
	_, err := s.send(http.MethodPost, s.sessionURL(session, ""), nil, "")
	return err
}

// DefaultImportPlan returns the server's default import plan for the uploaded archive.
func (s *HTTPService) DefaultImportPlan(session string) (ImportPlan, error) {
	response, err := s.send(http.MethodGet, s.sessionURL(session, "/importPlan"), nil, "")
	if err != nil {
		return ImportPlan{}, err
	}
	return ImportPlan{
		PreserveExistingCredentials:             boolValue(response, "preserveExistingCredentials"),
		PreserveExistingEnvValues:               boolValue(response, "preserveExistingEnvValues"),
		PreserveExistingOperationalValues:       boolValue(response, "preserveExistingOperationalValues"),
		PreserveExistingSecurityAndPolicyConfig: boolValue(response, "preserveExistingSecurityAndPolicyConfig"),
		PreserveExistingAccessControlPolicies:   boolValue(response, "preserveExistingAccessControlPolicies"),
	}, nil
}

// UploadArchive uploads the sbar archive into the session.
func (s *HTTPService) UploadArchive(session string, content []byte) error {
	_, err := s.send(http.MethodPut, s.sessionURL(session, "/archive"), content, "application/octet-stream")
	return err
}

// ImportUploaded imports the uploaded archive using plan.
func (s *HTTPService) ImportUploaded(session string, plan ImportPlan) (ImportResult, error) {
	payload := gabs.New()
	payload.Set(plan.PreserveExistingCredentials, "preserveExistingCredentials")
	payload.Set(plan.PreserveExistingEnvValues, "preserveExistingEnvValues")
	payload.Set(plan.PreserveExistingOperationalValues, "preserveExistingOperationalValues")
	payload.Set(plan.PreserveExistingSecurityAndPolicyConfig, "preserveExistingSecurityAndPolicyConfig")
	payload.Set(plan.PreserveExistingAccessControlPolicies, "preserveExistingAccessControlPolicies")

	response, err := s.send(http.MethodPost, s.sessionURL(session, "/import"), payload.Bytes(), "application/json")
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Imported: []string{}, Failed: map[string]string{}}
	for _, imported := range response.S("imported").Children() {
		if ref, ok := imported.Data().(string); ok {
			result.Imported = append(result.Imported, ref)
		}
	}
	for _, failed := range response.S("failed").Children() {
		ref, _ := failed.S("ref").Data().(string)
		reason, _ := failed.S("reason").Data().(string)
		result.Failed[ref] = reason
	}
	return result, nil
}

// Customize applies the customization directives to the session.
func (s *HTTPService) Customize(session string, customizations []Customization) error {
	content, err := MarshalCustomizations(customizations)
	if err != nil {
		return err
	}
	_, err = s.send(http.MethodPost, s.sessionURL(session, "/customizations"), content, "application/xml")
	return err
}

// Diagnostics returns the severity per resource reference of the session. A reference
// reported more than once keeps its first conflicting severity.
func (s *HTTPService) Diagnostics(session string) (map[string]Severity, error) {
	response, err := s.send(http.MethodGet, s.sessionURL(session, "/diagnostics"), nil, "")
	if err != nil {
		return nil, err
	}
	diagnostics := map[string]Severity{}
	for _, diagnostic := range response.S("diagnostics").Children() {
		ref, _ := diagnostic.S("ref").Data().(string)
		severity, _ := diagnostic.S("severity").Data().(string)
		if existing, ok := diagnostics[ref]; ok && !existing.IsValid() {
			continue
		}
		diagnostics[ref] = Severity(strings.ToUpper(severity))
	}
	return diagnostics, nil
}

// ActivateSession commits the session.
func (s *HTTPService) ActivateSession(session, description string) error {
	payload := gabs.New()
	payload.Set(description, "description")
	_, err := s.send(http.MethodPost, s.sessionURL(session, "/activate"), payload.Bytes(), "application/json")
	return err
}

// DiscardSession discards the session.
func (s *HTTPService) DiscardSession(session string) error {
	_, err := s.send(http.MethodDelete, s.sessionURL(session, ""), nil, "")
	return err
}

func (s *HTTPService) send(method, requestURL string, body []byte, contentType string) (*gabs.Container, error) {
	header := make(http.Header)
	header.Add("Accept", "application/json")
	if len(contentType) > 0 {
		header.Add("Content-Type", contentType)
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	log.Entry().Debugf("%v %v", method, requestURL)
	response, httpErr := s.Client.SendRequest(method, requestURL, reader, header, nil)
	if response != nil && response.Body != nil {
		defer response.Body.Close()
	}
	if httpErr != nil {
		return nil, httpErrorMessage(httpErr, response, method, requestURL)
	}
	if response == nil {
		return nil, errors.Errorf("did not retrieve a HTTP response for %v %v", method, requestURL)
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP response body could not be read")
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return gabs.New(), nil
	}
	container, err := gabs.ParseJSON(content)
	if err != nil {
		return nil, errors.Wrapf(err, "HTTP response body could not be parsed as JSON: %v", string(content))
	}
	return container, nil
}

func httpErrorMessage(httpErr error, response *http.Response, method, requestURL string) error {
	if response == nil || response.Body == nil {
		return errors.Wrapf(httpErr, "HTTP %v request to %v failed", method, requestURL)
	}
	content, err := io.ReadAll(response.Body)
	if err != nil || len(bytes.TrimSpace(content)) == 0 {
		return errors.Wrapf(httpErr, "HTTP %v request to %v failed", method, requestURL)
	}
	message := string(content)
	if parsed, err := gabs.ParseJSON(content); err == nil {
		if text, ok := parsed.S("message").Data().(string); ok {
			message = text
		}
	}
	return errors.Wrapf(httpErr, "HTTP %v request to %v failed with error: %v", method, requestURL, message)
}

func boolValue(container *gabs.Container, key string) bool {
	value, _ := container.S(key).Data().(bool)
	return value
}
